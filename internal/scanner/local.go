package scanner

import (
	"context"

	"github.com/aicell-lab/hypha-artifact/internal/localfs"
)

// Local scans the local filesystem.
type Local struct {
	fs *localfs.FS
}

var _ Scanner = (*Local)(nil)

// NewLocal creates a scanner over the given local filesystem.
func NewLocal(fs *localfs.FS) *Local {
	return &Local{fs: fs}
}

// IsDir reports whether path is a local directory.
func (l *Local) IsDir(_ context.Context, path string) (bool, error) {
	return l.fs.IsDir(path)
}

// ListFiles walks the local directory root.
func (l *Local) ListFiles(ctx context.Context, root string, maxDepth int) ([]string, error) {
	return l.fs.ListFiles(ctx, root, maxDepth)
}
