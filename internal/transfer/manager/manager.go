package manager

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/operations/upload"
	"github.com/aicell-lab/hypha-artifact/internal/transfer/progress"
	"github.com/aicell-lab/hypha-artifact/internal/validation"
)

// Uploader moves one local file to the artifact.
type Uploader interface {
	Classify(localPath string, cfg artifacttypes.MultipartConfig) (int64, bool, error)
	UploadSimple(ctx context.Context, localPath, remotePath string) (*upload.Result, error)
	UploadMultipart(
		ctx context.Context,
		localPath, remotePath string,
		cfg artifacttypes.MultipartConfig,
	) (*upload.Result, error)
}

// Downloader moves one artifact file to the local filesystem.
type Downloader interface {
	Download(ctx context.Context, remotePath, localPath, version string) (int64, error)
}

// Copier copies one artifact file to another path of the artifact.
type Copier interface {
	Copy(ctx context.Context, srcPath, dstPath, version string) (int64, error)
}

// Config holds the settings of one run.
type Config struct {
	// Multipart decides and shapes multipart uploads
	Multipart artifacttypes.MultipartConfig

	// Concurrency bounds the number of files in flight
	Concurrency int

	// Version is the artifact version read by downloads and copies
	Version string

	// OnError is the per-file error policy
	OnError artifacttypes.ErrorPolicy
}

// Manager runs transfers with bounded concurrency.
type Manager struct {
	uploader   Uploader
	downloader Downloader
	copier     Copier
	logger     *slog.Logger
}

// New creates a manager. Any of the transfer implementations may be nil when
// the corresponding direction is never run.
func New(uploader Uploader, downloader Downloader, copier Copier, logger *slog.Logger) *Manager {
	return &Manager{
		uploader:   uploader,
		downloader: downloader,
		copier:     copier,
		logger:     logger,
	}
}

// job is one scheduled pair
type job struct {
	pair      artifacttypes.TransferPair
	multipart bool
	err       error
}

// Run transfers every pair in the given direction. Start is reported first
// with the number of pairs, then one in-progress and one terminal event per
// pair. Under the ignore policy Run only fails on configuration errors.
// Under the raise policy the first transfer error stops admission and is
// returned once the transfers already admitted have finished.
func (m *Manager) Run(
	ctx context.Context,
	pairs []artifacttypes.TransferPair,
	dir artifacttypes.Direction,
	cfg Config,
	sink artifacttypes.ProgressFunc,
) error {
	if err := validation.ValidateErrorPolicy(cfg.OnError); err != nil {
		return err
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = artifacttypes.DefaultConcurrency
	}

	jobs, err := m.classify(pairs, dir, cfg.Multipart)
	if err != nil {
		return err
	}

	reporter := progress.NewReporter(sink, dir)
	reporter.Start(len(jobs))

	sem := semaphore.NewWeighted(int64(concurrency))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		firstErr  error
		stopped   atomic.Bool
		completed atomic.Int64
	)

	for _, j := range jobs {
		if stopped.Load() {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = fmt.Errorf("context cancelled during transfer admission: %w", err)
			}
			mu.Unlock()
			break
		}
		// A failure may have landed while waiting for the slot
		if stopped.Load() {
			sem.Release(1)
			break
		}

		index := int(completed.Load())
		wg.Add(1)
		go func(j job) {
			defer func() {
				sem.Release(1)
				wg.Done()
			}()

			reporter.InProgress(j.pair.Source, index)
			err := m.transfer(ctx, j, dir, cfg)
			if err != nil {
				reporter.Error(j.pair.Source, err)
			} else {
				reporter.Success(j.pair.Source)
			}
			completed.Add(1)

			if err == nil {
				return
			}
			if cfg.OnError == artifacttypes.ErrorIgnore {
				if m.logger != nil {
					m.logger.Warn("transfer failed, continuing",
						"operation", dir.String(), "source", j.pair.Source, "error", err)
				}
				return
			}

			stopped.Store(true)
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(j)
	}

	wg.Wait()
	return firstErr
}

// classify decides per upload whether it goes through the multipart engine.
// A file that cannot be inspected keeps its error and fails when it runs.
func (m *Manager) classify(
	pairs []artifacttypes.TransferPair,
	dir artifacttypes.Direction,
	cfg artifacttypes.MultipartConfig,
) ([]job, error) {
	jobs := make([]job, len(pairs))
	if dir != artifacttypes.DirectionPut {
		for i, pair := range pairs {
			jobs[i].pair = pair
		}
		return jobs, nil
	}
	if m.uploader == nil {
		return nil, errors.NewConfigError("run", errors.ErrInvalidConfig).WithMessage("no uploader configured")
	}

	engaged := false
	for i, pair := range pairs {
		jobs[i].pair = pair
		_, useMultipart, err := m.uploader.Classify(pair.Source, cfg)
		jobs[i].multipart = useMultipart
		jobs[i].err = err
		engaged = engaged || useMultipart
	}

	if err := validation.ValidateMultipartConfig(cfg, engaged); err != nil {
		return nil, err
	}
	return jobs, nil
}

// transfer moves the bytes of one pair
func (m *Manager) transfer(ctx context.Context, j job, dir artifacttypes.Direction, cfg Config) error {
	if j.err != nil {
		return j.err
	}

	var err error
	switch dir {
	case artifacttypes.DirectionPut:
		if j.multipart {
			_, err = m.uploader.UploadMultipart(ctx, j.pair.Source, j.pair.Destination, cfg.Multipart)
		} else {
			_, err = m.uploader.UploadSimple(ctx, j.pair.Source, j.pair.Destination)
		}
		return err
	case artifacttypes.DirectionGet:
		if m.downloader == nil {
			return errors.NewConfigError("run", errors.ErrInvalidConfig).WithMessage("no downloader configured")
		}
		_, err = m.downloader.Download(ctx, j.pair.Source, j.pair.Destination, cfg.Version)
		return err
	case artifacttypes.DirectionCopy:
		if m.copier == nil {
			return errors.NewConfigError("run", errors.ErrInvalidConfig).WithMessage("no copier configured")
		}
		_, err = m.copier.Copy(ctx, j.pair.Source, j.pair.Destination, cfg.Version)
		return err
	default:
		return errors.NewConfigError("run", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("unknown direction %d", dir))
	}
}
