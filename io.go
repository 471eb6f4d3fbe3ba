package artifact

import (
	"context"
	stderrors "errors"
	"io"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/internal/httpfile"
	"github.com/aicell-lab/hypha-artifact/internal/validation"
)

// defaultHeadSize is the number of bytes Head reads when no size is given.
const defaultHeadSize = 1024

// File is a handle on one artifact file opened with Open.
type File = httpfile.File

// OpenOption configures Open.
type OpenOption func(*openConfig)

type openConfig struct {
	version     string
	contentType string
	autoCommit  bool
}

// WithOpenVersion selects the version a read handle reads from.
func WithOpenVersion(version string) OpenOption {
	return func(c *openConfig) {
		c.version = version
	}
}

// WithContentType sets the Content-Type of a write handle's upload.
// Default is application/octet-stream.
func WithContentType(contentType string) OpenOption {
	return func(c *openConfig) {
		c.contentType = contentType
	}
}

// WithAutoCommit commits the staged artifact after a write handle uploads
// its content on Close.
func WithAutoCommit(autoCommit bool) OpenOption {
	return func(c *openConfig) {
		c.autoCommit = autoCommit
	}
}

// Open returns a handle on the artifact file p. mode is one of "r", "w" or
// "a", optionally with a "b" suffix. No request is made until the first read
// or the closing upload, and p may also be an absolute http(s) URL.
func (c *Client) Open(p, mode string, opts ...OpenOption) (*File, error) {
	m, err := httpfile.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if err := validation.ValidateRemotePath(p); err != nil {
		return nil, err
	}

	cfg := openConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	resolve := func(ctx context.Context) (string, error) {
		return c.svc.GetFileURL(ctx, p, cfg.version)
	}
	if m.Writable() {
		resolve = func(ctx context.Context) (string, error) {
			return c.svc.PutFileURL(ctx, p)
		}
	}

	fileOpts := []httpfile.Option{
		httpfile.WithHTTPClient(c.httpClient),
		httpfile.WithContentType(cfg.contentType),
	}
	if cfg.autoCommit {
		fileOpts = append(fileOpts, httpfile.WithAutoCommit(func(ctx context.Context) error {
			return c.Commit(ctx, "", "")
		}))
	}
	return httpfile.Open(p, m, resolve, fileOpts...), nil
}

// ReadFile reads the whole artifact file p.
func (c *Client) ReadFile(ctx context.Context, p string, opts ...artifacttypes.TransferOption) ([]byte, error) {
	cfg := c.transferConfig(opts)
	return c.downloader.Fetch(ctx, p, cfg.Version)
}

// Cat reads the content of every path in spec. With WithRecursive, a
// directory contributes every file below it. Under ErrorIgnore a file that
// fails to read maps to nil content.
func (c *Client) Cat(
	ctx context.Context,
	spec PathSpec,
	opts ...artifacttypes.TransferOption,
) (map[string][]byte, error) {
	cfg := c.transferConfig(opts)
	if err := validation.ValidateErrorPolicy(cfg.OnError); err != nil {
		return nil, err
	}

	remote := c.remote(cfg.Version)
	results := make(map[string][]byte)
	for _, p := range spec.Paths() {
		files := []string{p}
		if cfg.Recursive {
			isDir, err := remote.IsDir(ctx, p)
			if err != nil {
				return nil, err
			}
			if isDir {
				if files, err = remote.ListFiles(ctx, p, cfg.MaxDepth); err != nil {
					return nil, err
				}
			}
		}

		for _, file := range files {
			data, err := c.downloader.Fetch(ctx, file, cfg.Version)
			if err != nil {
				if cfg.OnError == artifacttypes.ErrorRaise {
					return nil, err
				}
				if c.logger != nil {
					c.logger.Warn("cat failed, continuing", "path", file, "error", err)
				}
				data = nil
			}
			results[file] = data
		}
	}
	return results, nil
}

// Head reads the first size bytes of the artifact file p, 1024 when size is
// not positive.
func (c *Client) Head(ctx context.Context, p string, size int, opts ...artifacttypes.TransferOption) ([]byte, error) {
	if size <= 0 {
		size = defaultHeadSize
	}
	cfg := c.transferConfig(opts)

	f, err := c.Open(p, "rb", WithOpenVersion(cfg.Version))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close(ctx) }()

	data, err := f.Read(ctx, size)
	if stderrors.Is(err, io.EOF) {
		return []byte{}, nil
	}
	return data, err
}
