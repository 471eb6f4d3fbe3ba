package scanner

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
)

// Found is one entry discovered by Find, with its full path.
type Found struct {
	Path  string
	Entry artifacttypes.Entry
}

// Remote scans an artifact through its listing endpoint.
type Remote struct {
	svc     artifacttypes.Service
	version string
}

var _ Scanner = (*Remote)(nil)

// NewRemote creates a scanner over the artifact service. version selects the
// artifact version listed; empty means the latest.
func NewRemote(svc artifacttypes.Service, version string) *Remote {
	return &Remote{
		svc:     svc,
		version: version,
	}
}

// Find walks the artifact below root depth-first in listing order. Files are
// always returned, directories only when withDirs is set. A positive maxDepth
// limits the walk to that many directory levels.
func (r *Remote) Find(ctx context.Context, root string, maxDepth int, withDirs bool) ([]Found, error) {
	return r.walk(ctx, root, maxDepth, 1, withDirs)
}

func (r *Remote) walk(ctx context.Context, dir string, maxDepth, depth int, withDirs bool) ([]Found, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled during artifact listing: %w", ctx.Err())
	default:
	}

	entries, err := r.svc.ListFiles(ctx, dir, r.version)
	if err != nil {
		return nil, err
	}

	var found []Found
	for _, entry := range entries {
		full := joinRemote(dir, entry.Name)

		if !entry.IsDir() || withDirs {
			found = append(found, Found{Path: full, Entry: entry})
		}

		if entry.IsDir() && (maxDepth <= 0 || depth < maxDepth) {
			children, err := r.walk(ctx, full, maxDepth, depth+1, withDirs)
			if err != nil {
				return nil, err
			}
			found = append(found, children...)
		}
	}
	return found, nil
}

// ListFiles returns the paths of all files below root.
func (r *Remote) ListFiles(ctx context.Context, root string, maxDepth int) ([]string, error) {
	found, err := r.Find(ctx, root, maxDepth, false)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(found))
	for _, f := range found {
		files = append(files, f.Path)
	}
	return files, nil
}

// Stat looks up a single path by listing its parent directory. The artifact
// root is always a directory.
func (r *Remote) Stat(ctx context.Context, p string) (artifacttypes.Entry, error) {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" || trimmed == "." {
		return artifacttypes.Entry{Name: "", Type: artifacttypes.EntryDirectory}, nil
	}

	parent, name := path.Split(trimmed)
	entries, err := r.svc.ListFiles(ctx, strings.TrimSuffix(parent, "/"), r.version)
	if err != nil {
		return artifacttypes.Entry{}, err
	}
	for _, entry := range entries {
		if entry.Name == name {
			return entry, nil
		}
	}
	return artifacttypes.Entry{}, errors.NewError("stat", errors.KindNotFound, errors.ErrNotFound).WithPath(p)
}

// IsDir reports whether p is a directory in the artifact.
func (r *Remote) IsDir(ctx context.Context, p string) (bool, error) {
	entry, err := r.Stat(ctx, p)
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return entry.IsDir(), nil
}

// joinRemote joins an artifact directory and a child name
func joinRemote(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return path.Join(dir, name)
}
