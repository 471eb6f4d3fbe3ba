package s3backend

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
)

// API is the subset of the S3 client used by the backend.
// It is implemented by *s3.Client.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CreateMultipartUpload(
		ctx context.Context,
		params *s3.CreateMultipartUploadInput,
		optFns ...func(*s3.Options),
	) (*s3.CreateMultipartUploadOutput, error)
	CompleteMultipartUpload(
		ctx context.Context,
		params *s3.CompleteMultipartUploadInput,
		optFns ...func(*s3.Options),
	) (*s3.CompleteMultipartUploadOutput, error)
}

// Presigner creates presigned request URLs.
// It is implemented by *s3.PresignClient.
type Presigner interface {
	PresignGetObject(
		ctx context.Context,
		params *s3.GetObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
	PresignPutObject(
		ctx context.Context,
		params *s3.PutObjectInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
	PresignUploadPart(
		ctx context.Context,
		params *s3.UploadPartInput,
		optFns ...func(*s3.PresignOptions),
	) (*v4.PresignedHTTPRequest, error)
}

// Backend serves one artifact from an S3 bucket.
// It is safe for concurrent use.
type Backend struct {
	api       API
	presigner Presigner
	bucket    string
	cfg       Config

	// uploads maps open multipart upload ids to their object keys
	mu      sync.Mutex
	uploads map[string]string
}

var _ artifacttypes.Service = (*Backend)(nil)

// NewFromConfig loads the default AWS configuration and creates a backend
// for bucket. Region, endpoint and path-style options are applied to the
// S3 client.
func NewFromConfig(ctx context.Context, bucket string, opts ...Option) (*Backend, error) {
	cfg := newConfig(opts)

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewConfigError("loadAWSConfig", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return New(client, bucket, opts...)
}

// New creates a backend for bucket using an existing S3 client.
func New(client *s3.Client, bucket string, opts ...Option) (*Backend, error) {
	return NewWithAPI(client, s3.NewPresignClient(client), bucket, opts...)
}

// NewWithAPI creates a backend from explicit API and presigner
// implementations. This is primarily used for testing.
func NewWithAPI(api API, presigner Presigner, bucket string, opts ...Option) (*Backend, error) {
	if bucket == "" {
		return nil, errors.NewConfigError("newBackend", errors.ErrInvalidConfig).
			WithMessage("bucket is required")
	}
	return &Backend{
		api:       api,
		presigner: presigner,
		bucket:    bucket,
		cfg:       newConfig(opts),
		uploads:   make(map[string]string),
	}, nil
}

func newConfig(opts []Option) Config {
	cfg := Config{PresignExpiry: DefaultPresignExpiry}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.Prefix = strings.Trim(cfg.Prefix, "/")
	return cfg
}

// Bucket returns the bucket name.
func (b *Backend) Bucket() string {
	return b.bucket
}

// ListFiles lists the direct children of dir. Common prefixes are reported
// as directories.
func (b *Backend) ListFiles(ctx context.Context, dir, version string) ([]artifacttypes.Entry, error) {
	if err := checkVersion("listFiles", version); err != nil {
		return nil, err
	}

	prefix := b.key(dir)
	if prefix != "" {
		prefix += "/"
	}

	input := &s3.ListObjectsV2Input{
		Bucket:    aws.String(b.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	}

	var entries []artifacttypes.Entry
	paginator := s3.NewListObjectsV2Paginator(b.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, mapError("listFiles", dir, err)
		}
		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if name == "" {
				continue
			}
			entries = append(entries, artifacttypes.Entry{Name: name, Type: artifacttypes.EntryDirectory})
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), prefix)
			// Zero-length "dir/" markers are not files
			if name == "" {
				continue
			}
			entries = append(entries, artifacttypes.Entry{
				Name:         name,
				Type:         artifacttypes.EntryFile,
				Size:         uint64(max(aws.ToInt64(obj.Size), 0)),
				LastModified: obj.LastModified,
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

	if b.cfg.Logger != nil {
		b.cfg.Logger.Debug("listed bucket prefix", "bucket", b.bucket, "prefix", prefix, "entries", len(entries))
	}
	return entries, nil
}

// GetFileURL returns a presigned GET URL for an existing file.
func (b *Backend) GetFileURL(ctx context.Context, p, version string) (string, error) {
	if err := checkVersion("getFile", version); err != nil {
		return "", err
	}
	if err := b.head(ctx, "getFile", p); err != nil {
		return "", err
	}

	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
	}, s3.WithPresignExpires(b.cfg.PresignExpiry))
	if err != nil {
		return "", mapError("getFile", p, err)
	}
	return req.URL, nil
}

// PutFileURL returns a presigned PUT URL for p.
func (b *Backend) PutFileURL(ctx context.Context, p string) (string, error) {
	req, err := b.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
	}, s3.WithPresignExpires(b.cfg.PresignExpiry))
	if err != nil {
		return "", mapError("putFile", p, err)
	}
	return req.URL, nil
}

// RemoveFile deletes p. Deleting a missing file is a not-found error.
func (b *Backend) RemoveFile(ctx context.Context, p string) error {
	if err := b.head(ctx, "removeFile", p); err != nil {
		return err
	}
	_, err := b.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
	})
	return mapError("removeFile", p, err)
}

// StartMultipart creates a multipart upload and presigns one URL per part.
// S3 has no download weight, so downloadWeight is ignored.
func (b *Backend) StartMultipart(
	ctx context.Context,
	p string,
	partCount int,
	_ float64,
) (*artifacttypes.MultipartSession, error) {
	key := b.key(p)
	out, err := b.api.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError("startMultipart", p, err)
	}
	uploadID := aws.ToString(out.UploadId)
	if uploadID == "" {
		return nil, errors.NewProtocolError("startMultipart", errors.ErrProtocol).
			WithPath(p).
			WithMessage("missing upload id")
	}

	session := &artifacttypes.MultipartSession{
		UploadID: uploadID,
		Parts:    make([]artifacttypes.PartSlot, 0, partCount),
	}
	for i := 1; i <= partCount; i++ {
		req, err := b.presigner.PresignUploadPart(ctx, &s3.UploadPartInput{
			Bucket:     aws.String(b.bucket),
			Key:        aws.String(key),
			UploadId:   aws.String(uploadID),
			PartNumber: aws.Int32(int32(i)), //nolint:gosec // part counts are far below MaxInt32
		}, s3.WithPresignExpires(b.cfg.PresignExpiry))
		if err != nil {
			return nil, mapError("startMultipart", p, err)
		}
		session.Parts = append(session.Parts, artifacttypes.PartSlot{
			PartNumber: uint32(i), //nolint:gosec // see above
			URL:        req.URL,
		})
	}

	b.mu.Lock()
	b.uploads[uploadID] = key
	b.mu.Unlock()

	if b.cfg.Logger != nil {
		b.cfg.Logger.Debug("multipart upload started", "key", key, "upload_id", uploadID, "parts", partCount)
	}
	return session, nil
}

// CompleteMultipart assembles the uploaded parts of an upload started by
// this backend.
func (b *Backend) CompleteMultipart(
	ctx context.Context,
	uploadID string,
	parts []artifacttypes.CompletedPart,
) error {
	b.mu.Lock()
	key, ok := b.uploads[uploadID]
	b.mu.Unlock()
	if !ok {
		return errors.NewProtocolError("completeMultipart", errors.ErrProtocol).
			WithMessage(fmt.Sprintf("unknown upload id %q", uploadID))
	}

	completed := make([]types.CompletedPart, 0, len(parts))
	for _, part := range parts {
		completed = append(completed, types.CompletedPart{
			ETag:       aws.String(`"` + strings.Trim(part.ETag, `"`) + `"`),
			PartNumber: aws.Int32(int32(part.PartNumber)), //nolint:gosec // S3 allows at most 10000 parts
		})
	}

	_, err := b.api.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(b.bucket),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		return mapError("completeMultipart", key, err)
	}

	b.mu.Lock()
	delete(b.uploads, uploadID)
	b.mu.Unlock()
	return nil
}

// head checks that the object at p exists
func (b *Backend) head(ctx context.Context, op, p string) error {
	_, err := b.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(p)),
	})
	return mapError(op, p, err)
}

// key maps an artifact path to its object key
func (b *Backend) key(p string) string {
	p = strings.Trim(p, "/")
	if p == "." {
		p = ""
	}
	if b.cfg.Prefix == "" {
		return p
	}
	if p == "" {
		return b.cfg.Prefix
	}
	return path.Join(b.cfg.Prefix, p)
}

// checkVersion rejects reads of anything but the latest version
func checkVersion(op, version string) error {
	if version == "" || version == "latest" {
		return nil
	}
	return errors.NewConfigError(op, errors.ErrUnsupported).
		WithMessage(fmt.Sprintf("version %q: S3 backends only serve the latest version", version))
}
