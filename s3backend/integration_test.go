package s3backend_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	artifact "github.com/aicell-lab/hypha-artifact"
	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/localfs"
	"github.com/aicell-lab/hypha-artifact/internal/testutil"
	"github.com/aicell-lab/hypha-artifact/s3backend"
)

func TestIntegrationClientOverS3(t *testing.T) {
	stack := testutil.StartLocalStack(t)
	bucket := stack.CreateBucket(t)
	ctx := context.Background()

	backend, err := s3backend.New(stack.Client, bucket, s3backend.WithPrefix("artifacts/cells"))
	require.NoError(t, err)

	local := localfs.NewInMemoryFS()
	client, err := artifact.New(
		artifact.WithService(backend),
		artifact.WithArtifactID(bucket+"/artifacts/cells"),
		artifact.WithFilesystem(local.Raw()),
		artifact.WithChunkSize(artifacttypes.MinChunkSize),
		artifact.WithForceMultipart(true),
	)
	require.NoError(t, err)

	big := bytes.Repeat([]byte("0123456789abcdef"), 11*artifacttypes.MiB/16)
	require.NoError(t, local.WriteFile("/in/small.txt", []byte("hello s3")))
	require.NoError(t, local.WriteFile("/in/nested/big.bin", big))

	t.Run("put", func(t *testing.T) {
		rec := &testutil.ProgressRecorder{}
		err := client.Put(ctx, artifact.Path("/in"), artifact.Path("data"),
			artifact.WithRecursive(true), artifact.WithProgress(rec.Record))
		require.NoError(t, err)
		assert.Equal(t, 2, rec.Count(artifacttypes.EventSuccess))
	})

	t.Run("list", func(t *testing.T) {
		found, err := client.Find(ctx, "data", 0, false, artifact.WithDetail(false))
		require.NoError(t, err)
		assert.Equal(t, []string{"data/nested/big.bin", "data/small.txt"}, found.Paths)

		size, err := client.Size(ctx, "data/nested/big.bin")
		require.NoError(t, err)
		assert.Equal(t, int64(len(big)), size)
	})

	t.Run("get", func(t *testing.T) {
		err := client.Get(ctx, artifact.Path("data"), artifact.Path("/out"), artifact.WithRecursive(true))
		require.NoError(t, err)

		got, err := local.ReadFile("/out/nested/big.bin")
		require.NoError(t, err)
		assert.True(t, bytes.Equal(big, got))

		head, err := client.Head(ctx, "data/small.txt", 5)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), head)
	})

	t.Run("remove", func(t *testing.T) {
		require.NoError(t, client.Remove(ctx, "data", true, 0))
		exists, err := client.Exists(ctx, "data/small.txt")
		require.NoError(t, err)
		assert.False(t, exists)

		err = client.Remove(ctx, "data/small.txt", false, 0)
		assert.True(t, errors.IsNotFound(err))
	})

	t.Run("unsupported", func(t *testing.T) {
		err := client.Commit(ctx, "", "")
		assert.ErrorIs(t, err, errors.ErrUnsupported)
	})
}
