package artifact

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/localfs"
	"github.com/aicell-lab/hypha-artifact/internal/testutil"
)

// newTestEnv starts a fake artifact server and returns a client wired to it
// with an in-memory local filesystem.
func newTestEnv(t *testing.T, opts ...artifacttypes.Option) (*testutil.FakeServer, *Client, *localFiles) {
	t.Helper()
	srv := testutil.NewFakeServer()
	t.Cleanup(srv.Close)

	local := &localFiles{t: t, fs: localfs.NewInMemoryFS()}
	base := []artifacttypes.Option{
		WithServerURL(srv.URL),
		WithArtifactID("ws/data"),
		WithHTTPClient(srv.Client()),
		WithFilesystem(local.fs.Raw()),
	}
	client, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return srv, client, local
}

// localFiles is the in-memory local side of a test client
type localFiles struct {
	t  *testing.T
	fs *localfs.FS
}

func (l *localFiles) write(name, content string) {
	l.t.Helper()
	require.NoError(l.t, l.fs.WriteFile(name, []byte(content)))
}

func (l *localFiles) read(name string) string {
	l.t.Helper()
	data, err := l.fs.ReadFile(name)
	require.NoError(l.t, err)
	return string(data)
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    []artifacttypes.Option
		wantErr error
	}{
		{
			name:    "missing_server",
			opts:    []artifacttypes.Option{WithArtifactID("ws/data")},
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name:    "alias_without_workspace",
			opts:    []artifacttypes.Option{WithServerURL("https://hypha.example"), WithArtifactID("data")},
			wantErr: errors.ErrInvalidConfig,
		},
		{
			name: "workspace_mismatch",
			opts: []artifacttypes.Option{
				WithServerURL("https://hypha.example"),
				WithArtifactID("ws/data"),
				WithWorkspace("other"),
			},
			wantErr: errors.ErrWorkspaceMismatch,
		},
		{
			name: "zero_chunk_size",
			opts: []artifacttypes.Option{
				WithServerURL("https://hypha.example"),
				WithArtifactID("ws/data"),
				WithChunkSize(0),
			},
			wantErr: errors.ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}

func TestNewArtifactID(t *testing.T) {
	client, err := New(
		WithServerURL("https://hypha.example"),
		WithArtifactID("data"),
		WithWorkspace("ws"),
	)
	require.NoError(t, err)
	assert.Equal(t, "ws/data", client.ArtifactID())

	custom, err := New(WithService(&testutil.MockService{}), WithArtifactID("bucket"))
	require.NoError(t, err)
	assert.Equal(t, "bucket", custom.ArtifactID())
}

func TestTokenIsSent(t *testing.T) {
	srv, client, _ := newTestEnv(t)
	srv.Token = "secret"

	_, err := client.Ls(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, errors.StatusCode(err))

	authed, err := New(
		WithServerURL(srv.URL),
		WithArtifactID("ws/data"),
		WithHTTPClient(srv.Client()),
		WithToken("secret"),
	)
	require.NoError(t, err)
	_, err = authed.Ls(context.Background(), "")
	require.NoError(t, err)
}
