package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/aicell-lab/hypha-artifact/internal/pool"
)

// nativeOS is a billy.Filesystem that acts like the native filesystem:
// relative paths resolve against the working directory.
type nativeOS struct {
	osfs.ChrootOS
}

// Chroot returns a new filesystem rooted at the provided path.
//
//nolint:ireturn // billy.Filesystem is an interface; signature is dictated by upstream.
func (n *nativeOS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

// Root returns the root path for this filesystem.
func (n *nativeOS) Root() string {
	return "/"
}

// FS is the local filesystem used for uploads and downloads.
type FS struct {
	fs billy.Filesystem
}

// New creates a new FS using the given go-billy filesystem.
func New(fsys billy.Filesystem) *FS {
	return &FS{
		fs: fsys,
	}
}

// NewOSFS creates a filesystem backed by the operating system.
func NewOSFS() *FS {
	return &FS{
		fs: &nativeOS{},
	}
}

// NewInMemoryFS creates a new in-memory filesystem.
func NewInMemoryFS() *FS {
	return &FS{
		fs: memfs.New(),
	}
}

// Raw returns the underlying go-billy filesystem.
//
//nolint:ireturn // returning interface here is intentional to expose the adapter target.
func (f *FS) Raw() billy.Filesystem {
	return f.fs
}

// Stat returns file information for name.
func (f *FS) Stat(name string) (os.FileInfo, error) {
	info, err := f.fs.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("localfs: stat %q: %w", name, err)
	}
	return info, nil
}

// IsDir reports whether name is an existing directory. A missing path is not
// a directory and is not an error.
func (f *FS) IsDir(name string) (bool, error) {
	info, err := f.fs.Stat(name)
	switch {
	case err == nil:
		return info.IsDir(), nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, fmt.Errorf("localfs: stat %q: %w", name, err)
	}
}

// Size returns the size of the file at name in bytes.
func (f *FS) Size(name string) (int64, error) {
	info, err := f.Stat(name)
	if err != nil {
		return 0, err
	}
	if info.IsDir() {
		return 0, fmt.Errorf("localfs: size %q: is a directory", name)
	}
	return info.Size(), nil
}

// Open opens name for reading.
//
//nolint:ireturn // billy.File is the upstream file abstraction.
func (f *FS) Open(name string) (billy.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("localfs: open %q: %w", name, err)
	}
	return file, nil
}

// ReadFile reads the whole file at name.
func (f *FS) ReadFile(name string) ([]byte, error) {
	data, err := util.ReadFile(f.fs, name)
	if err != nil {
		return nil, fmt.Errorf("localfs: readfile %q: %w", name, err)
	}
	return data, nil
}

// WriteFile writes data to name, creating parent directories as needed.
func (f *FS) WriteFile(name string, data []byte) error {
	if dir := filepath.Dir(name); dir != "." && dir != "" {
		if err := f.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("localfs: mkdirall %q: %w", dir, err)
		}
	}
	if err := util.WriteFile(f.fs, name, data, 0o644); err != nil {
		return fmt.Errorf("localfs: writefile %q: %w", name, err)
	}
	return nil
}

// ReadChunks reads the file at name sequentially in blocks of the pool's chunk
// size and calls fn with each block. The final block may be shorter. fn owns
// the block and must return it to chunks when done with it.
func (f *FS) ReadChunks(name string, chunks *pool.ChunkPool, fn func(index int, chunk []byte) error) error {
	file, err := f.Open(name)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	for index := 0; ; index++ {
		buf := chunks.Get()
		n, err := io.ReadFull(file, buf)
		if n == 0 {
			chunks.Put(buf)
		} else if cbErr := fn(index, buf[:n]); cbErr != nil {
			return cbErr
		}
		switch {
		case err == nil:
			continue
		case err == io.EOF || err == io.ErrUnexpectedEOF:
			return nil
		default:
			return fmt.Errorf("localfs: read %q: %w", name, err)
		}
	}
}

// ListFiles returns every file below root. When maxDepth is positive, files in
// directories whose path relative to root has maxDepth or more components are
// skipped, so a maxDepth of 1 lists only the files directly inside root.
func (f *FS) ListFiles(ctx context.Context, root string, maxDepth int) ([]string, error) {
	var files []string

	err := util.Walk(f.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if maxDepth > 0 && depth(root, path) >= maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("localfs: walk %q: %w", root, err)
	}

	return files, nil
}

// depth returns the number of path components of dir relative to root
func depth(root, dir string) int {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return 0
	}
	return len(strings.Split(filepath.ToSlash(rel), "/"))
}
