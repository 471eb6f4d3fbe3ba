package artifactapi

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/testutil"
)

func newTestClient(t *testing.T, srv *testutil.FakeServer, token string) *Client {
	t.Helper()
	return New(Config{
		ServerURL:  srv.URL,
		Workspace:  "ws",
		Alias:      "data",
		Token:      token,
		HTTPClient: srv.Client(),
	})
}

func TestListFiles(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.AddFile("a.txt", []byte("aaa"))
	srv.AddFile("sub/b.txt", []byte("b"))
	srv.AddFile("sub/deep/c.txt", []byte("c"))

	client := newTestClient(t, srv, "")
	ctx := context.Background()

	entries, err := client.ListFiles(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a.txt", entries[0].Name)
	assert.Equal(t, artifacttypes.EntryFile, entries[0].Type)
	assert.Equal(t, uint64(3), entries[0].Size)
	require.NotNil(t, entries[0].LastModified)
	assert.Equal(t, "sub", entries[1].Name)
	assert.True(t, entries[1].IsDir())

	entries, err = client.ListFiles(ctx, "sub", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b.txt", entries[0].Name)
	assert.Equal(t, "deep", entries[1].Name)
}

func TestGetFileURL(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.AddFile("a.txt", []byte("aaa"))

	client := newTestClient(t, srv, "")
	ctx := context.Background()

	url, err := client.GetFileURL(ctx, "a.txt", "")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/a.txt", url)
	assert.False(t, strings.Contains(url, `"`))

	_, err = client.GetFileURL(ctx, "missing.txt", "")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, http.StatusNotFound, errors.StatusCode(err))
	assert.Contains(t, err.Error(), "missing.txt")
}

func TestPutFileURL(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()

	client := newTestClient(t, srv, "")
	url, err := client.PutFileURL(context.Background(), "/out/x.bin")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/storage/out/x.bin", url)
	assert.Equal(t, []string{"put_file"}, srv.Calls())
}

func TestAuthorization(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.Token = "secret"
	srv.AddFile("a.txt", []byte("a"))

	_, err := newTestClient(t, srv, "").ListFiles(context.Background(), "", "")
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	assert.False(t, errors.IsNotFound(err))
	assert.Equal(t, http.StatusUnauthorized, errors.StatusCode(err))

	entries, err := newTestClient(t, srv, "secret").ListFiles(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStartAndCompleteMultipart(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.OmitPartNumbers = true

	client := newTestClient(t, srv, "")
	ctx := context.Background()

	session, err := client.StartMultipart(ctx, "big.bin", 3, 0)
	require.NoError(t, err)
	assert.NotEmpty(t, session.UploadID)
	require.Len(t, session.Parts, 3)
	for _, part := range session.Parts {
		assert.Zero(t, part.PartNumber)
		assert.True(t, strings.HasPrefix(part.URL, srv.URL+"/parts/"))
	}
	assert.Equal(t, []testutil.StartCall{{Path: "big.bin", PartCount: 3, DownloadWeight: 1}}, srv.StartCalls())

	err = client.CompleteMultipart(ctx, "unknown", []artifacttypes.CompletedPart{{PartNumber: 1, ETag: "x"}})
	require.Error(t, err)
	assert.True(t, errors.IsTransport(err))
	require.Len(t, srv.CompleteCalls(), 1)
	assert.Equal(t, "unknown", srv.CompleteCalls()[0].UploadID)
}

func TestStartMultipartDownloadWeight(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()

	_, err := newTestClient(t, srv, "").StartMultipart(context.Background(), "big.bin", 2, 2.5)
	require.NoError(t, err)
	assert.Equal(t, []testutil.StartCall{{Path: "big.bin", PartCount: 2, DownloadWeight: 2.5}}, srv.StartCalls())
}

func TestRemoveFile(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.AddFile("a.txt", []byte("a"))

	client := newTestClient(t, srv, "")
	require.NoError(t, client.RemoveFile(context.Background(), "a.txt"))
	assert.Empty(t, srv.Files())

	err := client.RemoveFile(context.Background(), "a.txt")
	assert.True(t, errors.IsNotFound(err))
}

func TestStateMethods(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()

	client := newTestClient(t, srv, "")
	ctx := context.Background()

	require.NoError(t, client.Edit(ctx, artifacttypes.EditRequest{
		Manifest: map[string]any{"name": "demo"},
		Stage:    true,
	}))
	require.NoError(t, client.Commit(ctx, "", "initial"))
	require.NoError(t, client.Discard(ctx))

	assert.Equal(t, []string{"edit", "commit", "discard"}, srv.Calls())
	edits := srv.Edits()
	require.Len(t, edits, 1)
	assert.Equal(t, "ws/data", edits[0]["artifact_id"])
	assert.Equal(t, true, edits[0]["stage"])
	assert.Equal(t, map[string]any{"name": "demo"}, edits[0]["manifest"])
}

func TestUnquoteURL(t *testing.T) {
	assert.Equal(t, "https://x/y", unquoteURL([]byte("\"https://x/y\"\n")))
	assert.Equal(t, "https://x/y", unquoteURL([]byte("https://x/y")))
}
