package copy

import (
	"context"
	"net/http"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/internal/httpfile"
	"github.com/aicell-lab/hypha-artifact/internal/operations"
	"github.com/aicell-lab/hypha-artifact/internal/validation"
)

// Copier handles copy operations within an artifact
type Copier struct {
	svc    artifacttypes.Service
	client *http.Client
}

// NewCopier creates a new copy operation handler
func NewCopier(svc artifacttypes.Service, client *http.Client) *Copier {
	return &Copier{
		svc:    svc,
		client: client,
	}
}

// Copy copies srcPath, read from the given version, to dstPath and returns
// the number of bytes copied.
func (c *Copier) Copy(ctx context.Context, srcPath, dstPath, version string) (int64, error) {
	if err := validation.ValidateRemotePath(dstPath); err != nil {
		return 0, err
	}

	src := httpfile.Open(
		srcPath,
		httpfile.ModeRead,
		func(ctx context.Context) (string, error) {
			return c.svc.GetFileURL(ctx, srcPath, version)
		},
		httpfile.WithHTTPClient(c.client),
	)
	data, err := src.ReadAll(ctx)
	_ = src.Close(ctx)
	if err != nil {
		return 0, err
	}

	dst := httpfile.Open(
		dstPath,
		httpfile.ModeWrite,
		func(ctx context.Context) (string, error) {
			return c.svc.PutFileURL(ctx, dstPath)
		},
		httpfile.WithHTTPClient(c.client),
		httpfile.WithContentType(operations.ContentType(dstPath, data)),
	)
	if _, err := dst.Write(data); err != nil {
		return 0, err
	}
	if err := dst.Close(ctx); err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}
