package copy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/artifactapi"
	"github.com/aicell-lab/hypha-artifact/internal/testutil"
)

func TestCopy(t *testing.T) {
	srv := testutil.NewFakeServer()
	defer srv.Close()
	srv.AddFile("src/a.txt", []byte("payload"))

	svc := artifactapi.New(artifactapi.Config{
		ServerURL:  srv.URL,
		Workspace:  "ws",
		Alias:      "data",
		HTTPClient: srv.Client(),
	})
	c := NewCopier(svc, srv.Client())
	ctx := context.Background()

	n, err := c.Copy(ctx, "src/a.txt", "dst/a.txt", "")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	data, ok := srv.File("dst/a.txt")
	require.True(t, ok)
	assert.Equal(t, []byte("payload"), data)

	_, err = c.Copy(ctx, "src/missing.txt", "dst/missing.txt", "")
	assert.True(t, errors.IsNotFound(err))
	_, ok = srv.File("dst/missing.txt")
	assert.False(t, ok)
}
