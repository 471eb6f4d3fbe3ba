package localfs

import (
	"bytes"
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/internal/pool"
)

func newTree(t *testing.T) *FS {
	t.Helper()
	fs := NewInMemoryFS()
	for _, name := range []string{
		"/src/a.txt",
		"/src/sub/b.txt",
		"/src/sub/deep/c.txt",
	} {
		require.NoError(t, fs.WriteFile(name, []byte(name)))
	}
	return fs
}

func TestListFilesDepth(t *testing.T) {
	tests := []struct {
		name     string
		maxDepth int
		want     []string
	}{
		{"unbounded", 0, []string{"/src/a.txt", "/src/sub/b.txt", "/src/sub/deep/c.txt"}},
		{"depth_one", 1, []string{"/src/a.txt"}},
		{"depth_two", 2, []string{"/src/a.txt", "/src/sub/b.txt"}},
		{"depth_large", 10, []string{"/src/a.txt", "/src/sub/b.txt", "/src/sub/deep/c.txt"}},
	}

	fs := newTree(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := fs.ListFiles(context.Background(), "/src", tt.maxDepth)
			require.NoError(t, err)
			sort.Strings(files)
			assert.Equal(t, tt.want, files)
		})
	}
}

func TestListFilesMissingRoot(t *testing.T) {
	fs := NewInMemoryFS()
	_, err := fs.ListFiles(context.Background(), "/missing", 0)
	assert.Error(t, err)
}

func TestIsDir(t *testing.T) {
	fs := newTree(t)

	isDir, err := fs.IsDir("/src/sub")
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = fs.IsDir("/src/a.txt")
	require.NoError(t, err)
	assert.False(t, isDir)

	isDir, err = fs.IsDir("/nope")
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestWriteFileCreatesParents(t *testing.T) {
	fs := NewInMemoryFS()
	require.NoError(t, fs.WriteFile("/out/nested/dir/file.bin", []byte("payload")))

	data, err := fs.ReadFile("/out/nested/dir/file.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)

	size, err := fs.Size("/out/nested/dir/file.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)
}

func TestReadChunks(t *testing.T) {
	fs := NewInMemoryFS()
	content := bytes.Repeat([]byte("0123456789"), 5) // 50 bytes
	require.NoError(t, fs.WriteFile("/big.bin", content))

	var sizes []int
	var joined []byte
	chunks := pool.NewChunkPool(20)
	err := fs.ReadChunks("/big.bin", chunks, func(index int, chunk []byte) error {
		assert.Equal(t, len(sizes), index)
		sizes = append(sizes, len(chunk))
		joined = append(joined, chunk...)
		chunks.Put(chunk)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 20, 10}, sizes)
	assert.Equal(t, content, joined)
}

func TestReadChunksExactMultiple(t *testing.T) {
	fs := NewInMemoryFS()
	require.NoError(t, fs.WriteFile("/even.bin", make([]byte, 40)))

	var sizes []int
	err := fs.ReadChunks("/even.bin", pool.NewChunkPool(20), func(_ int, chunk []byte) error {
		sizes = append(sizes, len(chunk))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{20, 20}, sizes)
}
