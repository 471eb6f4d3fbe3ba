package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/errors"
)

func TestFilesystemQueries(t *testing.T) {
	srv, client, _ := newTestEnv(t)
	srv.AddFile("a.txt", []byte("aaa"))
	srv.AddFile("dir/b.txt", []byte("b"))
	srv.AddFile("dir/deep/c.txt", []byte("c"))
	ctx := context.Background()

	ls, err := client.Ls(ctx, "/", WithDetail(false))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "dir"}, ls.Names)
	assert.Nil(t, ls.Entries)

	ls, err = client.Ls(ctx, "dir")
	require.NoError(t, err)
	require.Len(t, ls.Entries, 2)

	found, err := client.Find(ctx, "", 0, false, WithDetail(false))
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt", "dir/b.txt", "dir/deep/c.txt"}, found.Paths)

	found, err = client.Find(ctx, "dir", 1, true)
	require.NoError(t, err)
	require.Len(t, found.Entries, 2)
	assert.Equal(t, "dir/b.txt", found.Entries[0].Path)
	assert.True(t, found.Entries[1].Entry.IsDir())

	size, err := client.Size(ctx, "a.txt")
	require.NoError(t, err)
	assert.Equal(t, int64(3), size)

	isFile, err := client.IsFile(ctx, "a.txt")
	require.NoError(t, err)
	assert.True(t, isFile)

	isDir, err := client.IsDir(ctx, "dir")
	require.NoError(t, err)
	assert.True(t, isDir)

	exists, err := client.Exists(ctx, "nope.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = client.Exists(ctx, "/")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRemove(t *testing.T) {
	srv, client, _ := newTestEnv(t)
	srv.AddFile("keep.txt", []byte("k"))
	srv.AddFile("dir/a.txt", []byte("a"))
	srv.AddFile("dir/sub/b.txt", []byte("b"))
	ctx := context.Background()

	require.NoError(t, client.Remove(ctx, "dir", true, 0))
	assert.Equal(t, []string{"keep.txt"}, srv.Files())

	err := client.Remove(ctx, "gone.txt", false, 0)
	assert.True(t, errors.IsNotFound(err))

	err = client.Rmdir(ctx, "gone")
	assert.True(t, errors.IsNotFound(err))
}
