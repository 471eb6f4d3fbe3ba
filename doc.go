// Package artifact provides a Go client for Hypha artifacts.
// It transfers files between the local filesystem and an artifact, and within
// an artifact, through the presigned URLs issued by the artifact manager.
//
// The client emphasizes simple calls with progressive configuration through
// functional options, while the transfer engine handles concurrency and
// multipart uploads underneath.
//
// Key features:
//   - Single paths, path lists and recursive directory transfers
//   - Automatic multipart upload for large files
//   - Concurrent transfers with configurable limits
//   - Per-file progress events and a raise or ignore error policy
//   - Filesystem-style listing, reading and removal
//   - Staging, commit and discard of artifact versions
//
// Example usage:
//
//	client, err := artifact.New(
//	    artifact.WithServerURL("https://hypha.aicell.io"),
//	    artifact.WithArtifactID("my-workspace/my-dataset"),
//	    artifact.WithToken(token),
//	)
//	if err != nil {
//	    return err
//	}
//
//	// Upload a directory
//	err = client.Put(ctx, artifact.Path("./data"), artifact.Path("/data"),
//	    artifact.WithRecursive(true),
//	)
package artifact
