// Package s3backend serves an artifact directly from an S3 bucket.
//
// A Backend implements the artifact service surface on top of the AWS SDK:
// listings come from ListObjectsV2 with a "/" delimiter, and file transfers
// go through presigned GET, PUT and UploadPart URLs so the regular transfer
// engine moves the bytes. Plug it into a client with artifact.WithService.
//
// S3 has no notion of artifact versions, so only the latest version can be
// read and the staging operations (edit, commit, discard) are unsupported.
//
// Example:
//
//	backend, err := s3backend.NewFromConfig(ctx, "my-bucket",
//	    s3backend.WithPrefix("datasets/cells"),
//	    s3backend.WithRegion("eu-west-1"),
//	)
//	if err != nil {
//	    return err
//	}
//	client, err := artifact.New(
//	    artifact.WithService(backend),
//	    artifact.WithArtifactID("my-bucket/datasets/cells"),
//	)
package s3backend
