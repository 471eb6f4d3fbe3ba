package artifact

import (
	"context"
	"sort"
	"strings"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/validation"
)

// ListResult is the result of a listing. Entries is filled when details
// were requested, Names otherwise.
type ListResult struct {
	Entries []artifacttypes.Entry
	Names   []string
}

// FoundEntry is one entry discovered by Find, with its full path.
type FoundEntry struct {
	Path  string
	Entry artifacttypes.Entry
}

// FindResult is the result of Find, sorted by path. Entries is filled when
// details were requested, Paths otherwise.
type FindResult struct {
	Entries []FoundEntry
	Paths   []string
}

// ListOption configures a listing call.
type ListOption func(*listConfig)

type listConfig struct {
	detail  bool
	version string
}

// WithDetail selects full entries (true, the default) or bare names.
func WithDetail(detail bool) ListOption {
	return func(c *listConfig) {
		c.detail = detail
	}
}

// WithListVersion selects the artifact version listed.
func WithListVersion(version string) ListOption {
	return func(c *listConfig) {
		c.version = version
	}
}

func newListConfig(opts []ListOption) listConfig {
	cfg := listConfig{detail: true}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Ls lists the direct children of the directory p.
func (c *Client) Ls(ctx context.Context, p string, opts ...ListOption) (*ListResult, error) {
	cfg := newListConfig(opts)

	entries, err := c.svc.ListFiles(ctx, strings.Trim(p, "/"), cfg.version)
	if err != nil {
		return nil, err
	}

	if cfg.detail {
		return &ListResult{Entries: entries}, nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name)
	}
	return &ListResult{Names: names}, nil
}

// Find walks the artifact below p and returns every file, plus directories
// when withDirs is set. A positive maxDepth limits the walk to that many
// directory levels.
func (c *Client) Find(
	ctx context.Context,
	p string,
	maxDepth int,
	withDirs bool,
	opts ...ListOption,
) (*FindResult, error) {
	cfg := newListConfig(opts)

	found, err := c.remote(cfg.version).Find(ctx, p, maxDepth, withDirs)
	if err != nil {
		return nil, err
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Path < found[j].Path })

	result := &FindResult{}
	for _, f := range found {
		if cfg.detail {
			result.Entries = append(result.Entries, FoundEntry{Path: f.Path, Entry: f.Entry})
		} else {
			result.Paths = append(result.Paths, f.Path)
		}
	}
	return result, nil
}

// Info returns the entry describing p. The artifact root is a directory.
func (c *Client) Info(ctx context.Context, p string, opts ...ListOption) (artifacttypes.Entry, error) {
	return c.remote(newListConfig(opts).version).Stat(ctx, p)
}

// IsDir reports whether p is a directory. Missing paths are not.
func (c *Client) IsDir(ctx context.Context, p string, opts ...ListOption) (bool, error) {
	return c.remote(newListConfig(opts).version).IsDir(ctx, p)
}

// IsFile reports whether p is a file. Missing paths are not.
func (c *Client) IsFile(ctx context.Context, p string, opts ...ListOption) (bool, error) {
	entry, err := c.Info(ctx, p, opts...)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return !entry.IsDir(), nil
}

// Exists reports whether p is a file or directory of the artifact.
func (c *Client) Exists(ctx context.Context, p string, opts ...ListOption) (bool, error) {
	_, err := c.Info(ctx, p, opts...)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Size returns the size of the file p in bytes. Directories have size zero.
func (c *Client) Size(ctx context.Context, p string, opts ...ListOption) (int64, error) {
	entry, err := c.Info(ctx, p, opts...)
	if err != nil {
		return 0, err
	}
	if entry.IsDir() {
		return 0, nil
	}
	return int64(entry.Size), nil
}

// Remove deletes the file p. With recursive set and p a directory, every
// file below p up to maxDepth levels is deleted instead.
func (c *Client) Remove(ctx context.Context, p string, recursive bool, maxDepth int) error {
	if err := validation.ValidateRemotePath(p); err != nil {
		return err
	}

	if recursive {
		isDir, err := c.IsDir(ctx, p)
		if err != nil {
			return err
		}
		if isDir {
			files, err := c.remote("").ListFiles(ctx, p, maxDepth)
			if err != nil {
				return err
			}
			for _, file := range files {
				if err := c.svc.RemoveFile(ctx, file); err != nil {
					return err
				}
			}
			return nil
		}
	}

	return c.svc.RemoveFile(ctx, p)
}

// Rmdir checks that the directory p is empty. Directories are implicit in
// an artifact, so there is nothing to delete.
func (c *Client) Rmdir(ctx context.Context, p string) error {
	isDir, err := c.IsDir(ctx, p)
	if err != nil {
		return err
	}
	if !isDir {
		return errors.NewError("rmdir", errors.KindNotFound, errors.ErrNotFound).WithPath(p)
	}

	entries, err := c.svc.ListFiles(ctx, strings.Trim(p, "/"), "")
	if err != nil {
		return err
	}
	if len(entries) > 0 {
		return errors.NewConfigError("rmdir", errors.ErrInvalidConfig).
			WithPath(p).
			WithMessage("directory not empty")
	}
	return nil
}
