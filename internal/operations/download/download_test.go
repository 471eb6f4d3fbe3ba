package download

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/artifactapi"
	"github.com/aicell-lab/hypha-artifact/internal/localfs"
	"github.com/aicell-lab/hypha-artifact/internal/testutil"
)

func newTestDownloader(t *testing.T, srv *testutil.FakeServer) (*Downloader, *localfs.FS) {
	t.Helper()
	fs := localfs.NewInMemoryFS()
	svc := artifactapi.New(artifactapi.Config{
		ServerURL:  srv.URL,
		Workspace:  "ws",
		Alias:      "data",
		HTTPClient: srv.Client(),
	})
	return New(svc, fs, srv.Client()), fs
}

func TestDownload(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.AddFile("results/out.txt", []byte("hello"))

	d, fs := newTestDownloader(t, srv)
	n, err := d.Download(context.Background(), "results/out.txt", "/local/deep/out.txt", "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	data, err := fs.ReadFile("/local/deep/out.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
}

func TestDownloadErrors(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.AddFile("broken.txt", []byte("x"))
	srv.FailGet("broken.txt", http.StatusBadGateway)

	d, fs := newTestDownloader(t, srv)
	ctx := context.Background()

	_, err := d.Download(ctx, "missing.txt", "/missing.txt", "")
	assert.True(t, errors.IsNotFound(err))

	_, err = d.Download(ctx, "broken.txt", "/broken.txt", "")
	assert.True(t, errors.IsTransport(err))
	assert.Equal(t, http.StatusBadGateway, errors.StatusCode(err))

	_, statErr := fs.Stat("/broken.txt")
	assert.Error(t, statErr)
}
