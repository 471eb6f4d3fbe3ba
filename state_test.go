package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/testutil"
)

func TestStateMethods(t *testing.T) {
	srv, client, _ := newTestEnv(t)
	ctx := context.Background()

	require.NoError(t, client.Edit(ctx, artifacttypes.EditRequest{Manifest: map[string]any{"name": "x"}, Stage: true}))
	require.NoError(t, client.Commit(ctx, "v1", "first"))
	require.NoError(t, client.Discard(ctx))
	assert.Equal(t, []string{"edit", "commit", "discard"}, srv.Calls())

	custom, err := New(WithService(&testutil.MockService{}))
	require.NoError(t, err)
	err = custom.Commit(ctx, "", "")
	assert.ErrorIs(t, err, errors.ErrUnsupported)
}
