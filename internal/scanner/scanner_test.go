package scanner

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	artifacterrors "github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/localfs"
	"github.com/aicell-lab/hypha-artifact/internal/testutil"
)

func file(name string, size uint64) artifacttypes.Entry {
	return artifacttypes.Entry{Name: name, Type: artifacttypes.EntryFile, Size: size}
}

func dir(name string) artifacttypes.Entry {
	return artifacttypes.Entry{Name: name, Type: artifacttypes.EntryDirectory}
}

func remoteTree() *testutil.MockService {
	return &testutil.MockService{
		ListFilesFunc: testutil.TreeLister(map[string][]artifacttypes.Entry{
			"":             {dir("src"), file("top.txt", 1)},
			"src":          {file("a.txt", 1), dir("sub")},
			"src/sub":      {file("b.txt", 2), dir("deep")},
			"src/sub/deep": {file("c.txt", 3)},
		}),
	}
}

func TestRemoteFind(t *testing.T) {
	tests := []struct {
		name     string
		maxDepth int
		withDirs bool
		want     []string
	}{
		{"unbounded", 0, false, []string{"src/a.txt", "src/sub/b.txt", "src/sub/deep/c.txt"}},
		{"depth_one", 1, false, []string{"src/a.txt"}},
		{"depth_two", 2, false, []string{"src/a.txt", "src/sub/b.txt"}},
		{"with_dirs", 0, true, []string{"src/a.txt", "src/sub", "src/sub/b.txt", "src/sub/deep", "src/sub/deep/c.txt"}},
	}

	r := NewRemote(remoteTree(), "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := r.Find(context.Background(), "src", tt.maxDepth, tt.withDirs)
			require.NoError(t, err)
			var paths []string
			for _, f := range found {
				paths = append(paths, f.Path)
			}
			assert.Equal(t, tt.want, paths)
		})
	}
}

func TestRemoteFindFromRoot(t *testing.T) {
	r := NewRemote(remoteTree(), "")
	files, err := r.ListFiles(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"src/a.txt", "src/sub/b.txt", "src/sub/deep/c.txt", "top.txt"}, files)
}

func TestRemoteFindPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	r := NewRemote(&testutil.MockService{
		ListFilesFunc: func(context.Context, string, string) ([]artifacttypes.Entry, error) {
			return nil, boom
		},
	}, "")
	_, err := r.Find(context.Background(), "src", 0, false)
	assert.ErrorIs(t, err, boom)
}

func TestRemoteVersionIsForwarded(t *testing.T) {
	var versions []string
	r := NewRemote(&testutil.MockService{
		ListFilesFunc: func(_ context.Context, _ string, version string) ([]artifacttypes.Entry, error) {
			versions = append(versions, version)
			return nil, nil
		},
	}, "v2")
	_, err := r.ListFiles(context.Background(), "x", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2"}, versions)
}

func TestRemoteStat(t *testing.T) {
	r := NewRemote(remoteTree(), "")
	ctx := context.Background()

	entry, err := r.Stat(ctx, "src/sub/b.txt")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), entry.Size)

	entry, err = r.Stat(ctx, "/")
	require.NoError(t, err)
	assert.True(t, entry.IsDir())

	_, err = r.Stat(ctx, "src/nope.txt")
	assert.True(t, artifacterrors.IsNotFound(err))

	isDir, err := r.IsDir(ctx, "src/sub")
	require.NoError(t, err)
	assert.True(t, isDir)

	isDir, err = r.IsDir(ctx, "/src/a.txt")
	require.NoError(t, err)
	assert.False(t, isDir)

	isDir, err = r.IsDir(ctx, "src/missing")
	require.NoError(t, err)
	assert.False(t, isDir)
}

func TestLocalScanner(t *testing.T) {
	fs := localfs.NewInMemoryFS()
	require.NoError(t, fs.WriteFile("/src/a.txt", []byte("a")))
	require.NoError(t, fs.WriteFile("/src/sub/b.txt", []byte("b")))

	l := NewLocal(fs)
	ctx := context.Background()

	isDir, err := l.IsDir(ctx, "/src")
	require.NoError(t, err)
	assert.True(t, isDir)

	files, err := l.ListFiles(ctx, "/src", 0)
	require.NoError(t, err)
	sort.Strings(files)
	assert.Equal(t, []string{"/src/a.txt", "/src/sub/b.txt"}, files)
}
