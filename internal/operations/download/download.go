package download

import (
	"context"
	"net/http"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/internal/httpfile"
	"github.com/aicell-lab/hypha-artifact/internal/localfs"
	"github.com/aicell-lab/hypha-artifact/internal/operations"
)

// Downloader handles artifact download operations.
type Downloader struct {
	svc    artifacttypes.Service
	fs     *localfs.FS
	client *http.Client
}

// New creates a new Downloader instance.
func New(svc artifacttypes.Service, fs *localfs.FS, client *http.Client) *Downloader {
	return &Downloader{
		svc:    svc,
		fs:     fs,
		client: client,
	}
}

// Fetch reads the whole remote file at remotePath from the given version.
func (d *Downloader) Fetch(ctx context.Context, remotePath, version string) ([]byte, error) {
	f := httpfile.Open(
		remotePath,
		httpfile.ModeRead,
		func(ctx context.Context) (string, error) {
			return d.svc.GetFileURL(ctx, remotePath, version)
		},
		httpfile.WithHTTPClient(d.client),
	)
	defer func() { _ = f.Close(ctx) }()

	return f.ReadAll(ctx)
}

// Download writes the remote file at remotePath to localPath and returns the
// number of bytes written.
func (d *Downloader) Download(ctx context.Context, remotePath, localPath, version string) (int64, error) {
	data, err := d.Fetch(ctx, remotePath, version)
	if err != nil {
		return 0, err
	}
	if err := d.fs.WriteFile(localPath, data); err != nil {
		return 0, operations.LocalError("download", localPath, err)
	}
	return int64(len(data)), nil
}
