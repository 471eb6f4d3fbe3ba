package scanner

import (
	"context"
)

// Scanner answers the two questions path expansion needs about one side of a
// transfer: whether a path is a directory, and which files lie below it.
type Scanner interface {
	// IsDir reports whether path is a directory. Missing paths are not.
	IsDir(ctx context.Context, path string) (bool, error)

	// ListFiles returns the files below root. A positive maxDepth limits the
	// number of directory levels descended, 1 meaning root's own files only.
	ListFiles(ctx context.Context, root string, maxDepth int) ([]string, error)
}
