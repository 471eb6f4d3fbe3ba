package manager

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/operations/upload"
	"github.com/aicell-lab/hypha-artifact/internal/testutil"
)

// fakeTransfers implements every transfer direction with a shared hook
type fakeTransfers struct {
	sizes    map[string]int64
	fail     map[string]error
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	mu        sync.Mutex
	ran       []string
	multipart []string
}

func (f *fakeTransfers) run(path string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	time.Sleep(f.delay)

	f.mu.Lock()
	f.ran = append(f.ran, path)
	f.mu.Unlock()
	return f.fail[path]
}

func (f *fakeTransfers) Classify(localPath string, cfg artifacttypes.MultipartConfig) (int64, bool, error) {
	size, ok := f.sizes[localPath]
	if !ok {
		return 0, false, errors.NewError("classify", errors.KindNotFound, errors.ErrNotFound).WithPath(localPath)
	}
	return size, cfg.ShouldUseMultipart(size), nil
}

func (f *fakeTransfers) UploadSimple(_ context.Context, localPath, _ string) (*upload.Result, error) {
	return &upload.Result{}, f.run(localPath)
}

func (f *fakeTransfers) UploadMultipart(
	_ context.Context,
	localPath, _ string,
	_ artifacttypes.MultipartConfig,
) (*upload.Result, error) {
	f.mu.Lock()
	f.multipart = append(f.multipart, localPath)
	f.mu.Unlock()
	return &upload.Result{Multipart: true}, f.run(localPath)
}

func (f *fakeTransfers) Download(_ context.Context, remotePath, _, _ string) (int64, error) {
	return 0, f.run(remotePath)
}

func (f *fakeTransfers) Copy(_ context.Context, srcPath, _, _ string) (int64, error) {
	return 0, f.run(srcPath)
}

func pairsOf(n int) []artifacttypes.TransferPair {
	pairs := make([]artifacttypes.TransferPair, n)
	for i := range pairs {
		pairs[i] = artifacttypes.TransferPair{
			Source:      fmt.Sprintf("f%d", i),
			Destination: fmt.Sprintf("out/f%d", i),
		}
	}
	return pairs
}

func newManager(f *fakeTransfers) *Manager {
	return New(f, f, f, nil)
}

func defaultConfig(policy artifacttypes.ErrorPolicy) Config {
	return Config{
		Multipart:   artifacttypes.DefaultMultipartConfig(),
		Concurrency: 3,
		OnError:     policy,
	}
}

func TestRunProgressCompleteness(t *testing.T) {
	for _, n := range []int{0, 1, 7, 20} {
		t.Run(fmt.Sprintf("pairs_%d", n), func(t *testing.T) {
			f := &fakeTransfers{delay: time.Millisecond}
			rec := &testutil.ProgressRecorder{}

			err := newManager(f).Run(context.Background(), pairsOf(n), artifacttypes.DirectionGet,
				defaultConfig(artifacttypes.ErrorRaise), rec.Record)
			require.NoError(t, err)

			events := rec.Events()
			require.NotEmpty(t, events)
			assert.Equal(t, artifacttypes.EventStart, events[0].Kind)
			assert.Equal(t, n, events[0].Total)
			assert.Len(t, rec.OfKind(artifacttypes.EventStart), 1)
			assert.Len(t, rec.OfKind(artifacttypes.EventInProgress), n)
			assert.Equal(t, n, rec.Count(artifacttypes.EventSuccess)+rec.Count(artifacttypes.EventError))
		})
	}
}

func TestRunIgnorePolicyContainsFailure(t *testing.T) {
	f := &fakeTransfers{
		fail:  map[string]error{"f2": errors.NewTransportError("get", 500, fmt.Errorf("boom"))},
		delay: time.Millisecond,
	}
	rec := &testutil.ProgressRecorder{}

	err := newManager(f).Run(context.Background(), pairsOf(5), artifacttypes.DirectionGet,
		defaultConfig(artifacttypes.ErrorIgnore), rec.Record)
	require.NoError(t, err)

	assert.Len(t, f.ran, 5)
	errs := rec.OfKind(artifacttypes.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "f2", errs[0].Path)
	assert.Contains(t, errs[0].Message, "boom")
	assert.Equal(t, 4, rec.Count(artifacttypes.EventSuccess))
}

func TestRunRaisePolicyStopsAdmission(t *testing.T) {
	boom := errors.NewTransportError("copy", 502, fmt.Errorf("boom"))
	f := &fakeTransfers{
		fail:  map[string]error{"f0": boom},
		delay: 20 * time.Millisecond,
	}
	rec := &testutil.ProgressRecorder{}

	cfg := defaultConfig(artifacttypes.ErrorRaise)
	cfg.Concurrency = 2
	err := newManager(f).Run(context.Background(), pairsOf(10), artifacttypes.DirectionCopy, cfg, rec.Record)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	// Admitted siblings finish and report; nothing past the failure is admitted
	started := rec.Count(artifacttypes.EventInProgress)
	assert.Less(t, started, 10)
	assert.Equal(t, started, rec.Count(artifacttypes.EventSuccess)+rec.Count(artifacttypes.EventError))
	assert.Len(t, f.ran, started)
	assert.Equal(t, 1, rec.Count(artifacttypes.EventError))
}

func TestRunBoundsConcurrency(t *testing.T) {
	f := &fakeTransfers{delay: 10 * time.Millisecond}
	cfg := defaultConfig(artifacttypes.ErrorRaise)
	cfg.Concurrency = 3

	err := newManager(f).Run(context.Background(), pairsOf(12), artifacttypes.DirectionGet, cfg, nil)
	require.NoError(t, err)
	assert.Len(t, f.ran, 12)
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(3))
}

func TestRunProgressIndexCountsCompletions(t *testing.T) {
	f := &fakeTransfers{delay: time.Millisecond}
	rec := &testutil.ProgressRecorder{}
	cfg := defaultConfig(artifacttypes.ErrorRaise)
	cfg.Concurrency = 1

	err := newManager(f).Run(context.Background(), pairsOf(4), artifacttypes.DirectionGet, cfg, rec.Record)
	require.NoError(t, err)

	var indexes []int
	for _, e := range rec.OfKind(artifacttypes.EventInProgress) {
		indexes = append(indexes, e.Index)
	}
	assert.Equal(t, []int{0, 1, 2, 3}, indexes)
}

func TestRunClassifiesUploadsPerFile(t *testing.T) {
	chunk := int64(artifacttypes.MinChunkSize)
	f := &fakeTransfers{sizes: map[string]int64{
		"small.bin": 1024,
		"edge.bin":  chunk,
		"big.bin":   chunk + 1,
	}}
	pairs := []artifacttypes.TransferPair{
		{Source: "small.bin", Destination: "small.bin"},
		{Source: "edge.bin", Destination: "edge.bin"},
		{Source: "big.bin", Destination: "big.bin"},
	}
	cfg := defaultConfig(artifacttypes.ErrorRaise)
	cfg.Multipart = artifacttypes.MultipartConfig{
		ChunkSize:        chunk,
		Threshold:        artifacttypes.DefaultThreshold,
		MaxParallelParts: 2,
		ForceEnable:      true,
	}

	err := newManager(f).Run(context.Background(), pairs, artifacttypes.DirectionPut, cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"big.bin"}, f.multipart)
	assert.Len(t, f.ran, 3)
}

func TestRunRejectsSmallChunkBeforeStart(t *testing.T) {
	f := &fakeTransfers{sizes: map[string]int64{"big.bin": 4 * artifacttypes.MiB}}
	rec := &testutil.ProgressRecorder{}
	cfg := defaultConfig(artifacttypes.ErrorIgnore)
	cfg.Multipart = artifacttypes.MultipartConfig{
		ChunkSize:        artifacttypes.MiB,
		MaxParallelParts: 2,
		ForceEnable:      true,
	}

	err := newManager(f).Run(context.Background(),
		[]artifacttypes.TransferPair{{Source: "big.bin", Destination: "big.bin"}},
		artifacttypes.DirectionPut, cfg, rec.Record)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrChunkTooSmall)
	assert.Empty(t, rec.Events())
	assert.Empty(t, f.ran)
}

func TestRunMissingLocalFileReportsError(t *testing.T) {
	f := &fakeTransfers{sizes: map[string]int64{"a.txt": 1}}
	rec := &testutil.ProgressRecorder{}
	pairs := []artifacttypes.TransferPair{
		{Source: "a.txt", Destination: "a.txt"},
		{Source: "gone.txt", Destination: "gone.txt"},
	}

	err := newManager(f).Run(context.Background(), pairs, artifacttypes.DirectionPut,
		defaultConfig(artifacttypes.ErrorIgnore), rec.Record)
	require.NoError(t, err)
	errs := rec.OfKind(artifacttypes.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, "gone.txt", errs[0].Path)
	assert.Equal(t, []string{"a.txt"}, f.ran)
}

func TestRunRejectsUnknownPolicy(t *testing.T) {
	f := &fakeTransfers{}
	err := newManager(f).Run(context.Background(), pairsOf(1), artifacttypes.DirectionGet,
		defaultConfig("retry"), nil)
	assert.True(t, errors.IsConfiguration(err))
	assert.Empty(t, f.ran)
}
