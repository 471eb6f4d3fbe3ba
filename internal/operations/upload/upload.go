package upload

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/internal/httpfile"
	"github.com/aicell-lab/hypha-artifact/internal/localfs"
	"github.com/aicell-lab/hypha-artifact/internal/operations"
	"github.com/aicell-lab/hypha-artifact/internal/transfer/multipart"
	"github.com/aicell-lab/hypha-artifact/internal/validation"
)

// Result describes a finished upload.
type Result struct {
	// Size is the number of bytes uploaded
	Size int64

	// Multipart reports whether the file was uploaded in parts
	Multipart bool

	// ETag is the entity tag of a simple upload
	ETag string

	// UploadID identifies the multipart session, if any
	UploadID string
}

// Uploader handles artifact uploads with automatic multipart detection.
type Uploader struct {
	svc    artifacttypes.Service
	fs     *localfs.FS
	client *http.Client
	parts  *multipart.Uploader
}

// New creates a new Uploader instance.
func New(svc artifacttypes.Service, fs *localfs.FS, client *http.Client, logger *slog.Logger) *Uploader {
	return &Uploader{
		svc:    svc,
		fs:     fs,
		client: client,
		parts:  multipart.NewUploader(svc, fs, client, logger),
	}
}

// Classify returns the size of the local file and whether it is uploaded in
// parts under cfg.
func (u *Uploader) Classify(localPath string, cfg artifacttypes.MultipartConfig) (int64, bool, error) {
	size, err := u.fs.Size(localPath)
	if err != nil {
		return 0, false, operations.LocalError("classify", localPath, err)
	}
	return size, cfg.ShouldUseMultipart(size), nil
}

// Upload uploads the local file to remotePath, choosing between a simple and a
// multipart upload.
func (u *Uploader) Upload(
	ctx context.Context,
	localPath, remotePath string,
	cfg artifacttypes.MultipartConfig,
) (*Result, error) {
	_, useMultipart, err := u.Classify(localPath, cfg)
	if err != nil {
		return nil, err
	}
	if useMultipart {
		return u.UploadMultipart(ctx, localPath, remotePath, cfg)
	}
	return u.UploadSimple(ctx, localPath, remotePath)
}

// UploadSimple reads the whole local file and uploads it in one request.
func (u *Uploader) UploadSimple(ctx context.Context, localPath, remotePath string) (*Result, error) {
	if err := validation.ValidateRemotePath(remotePath); err != nil {
		return nil, err
	}

	data, err := u.fs.ReadFile(localPath)
	if err != nil {
		return nil, operations.LocalError("upload", localPath, err)
	}

	f := httpfile.Open(
		remotePath,
		httpfile.ModeWrite,
		func(ctx context.Context) (string, error) {
			return u.svc.PutFileURL(ctx, remotePath)
		},
		httpfile.WithHTTPClient(u.client),
		httpfile.WithContentType(operations.ContentType(localPath, data)),
	)
	if _, err := f.Write(data); err != nil {
		return nil, err
	}
	if err := f.Close(ctx); err != nil {
		return nil, err
	}

	return &Result{
		Size: int64(len(data)),
		ETag: f.ETag(),
	}, nil
}

// UploadMultipart uploads the local file in parts of cfg.ChunkSize bytes.
func (u *Uploader) UploadMultipart(
	ctx context.Context,
	localPath, remotePath string,
	cfg artifacttypes.MultipartConfig,
) (*Result, error) {
	if err := validation.ValidateRemotePath(remotePath); err != nil {
		return nil, err
	}

	res, err := u.parts.Upload(ctx, localPath, remotePath, cfg)
	if err != nil {
		return nil, err
	}
	return &Result{
		Size:      res.Size,
		Multipart: true,
		UploadID:  res.UploadID,
	}, nil
}
