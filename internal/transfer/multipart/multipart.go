package multipart

import (
	"context"
	stderrors "errors"
	"fmt"
	iofs "io/fs"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/httpfile"
	"github.com/aicell-lab/hypha-artifact/internal/localfs"
	"github.com/aicell-lab/hypha-artifact/internal/pool"
	"github.com/aicell-lab/hypha-artifact/internal/validation"
)

// State is the lifecycle state of one multipart upload.
type State int

// Upload states
const (
	StateNotStarted State = iota
	StateSessionStarted
	StatePartsUploading
	StateFinalized
	StateAborted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateSessionStarted:
		return "session_started"
	case StatePartsUploading:
		return "parts_uploading"
	case StateFinalized:
		return "finalized"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Result describes a finished multipart upload.
type Result struct {
	UploadID string
	Size     int64
	Parts    []artifacttypes.CompletedPart
	State    State
}

// Uploader handles multipart upload operations
type Uploader struct {
	svc    artifacttypes.Service
	fs     *localfs.FS
	client *http.Client
	logger *slog.Logger
}

// NewUploader creates a new multipart uploader reading local files from fs.
func NewUploader(svc artifacttypes.Service, fs *localfs.FS, client *http.Client, logger *slog.Logger) *Uploader {
	return &Uploader{
		svc:    svc,
		fs:     fs,
		client: client,
		logger: logger,
	}
}

// Upload uploads the local file at localPath to remotePath in parts of
// cfg.ChunkSize bytes. The file is streamed: at most cfg.MaxParallelParts
// chunks plus the one being read are held in memory.
func (u *Uploader) Upload(
	ctx context.Context,
	localPath, remotePath string,
	cfg artifacttypes.MultipartConfig,
) (*Result, error) {
	result := &Result{State: StateNotStarted}

	if err := validation.ValidateMultipartConfig(cfg, true); err != nil {
		return result, err
	}

	size, err := u.fs.Size(localPath)
	if err != nil {
		kind := errors.KindConfiguration
		if stderrors.Is(err, iofs.ErrNotExist) {
			kind = errors.KindNotFound
		}
		return result, errors.NewError("multipartUpload", kind, err).WithPath(localPath)
	}
	result.Size = size

	partCount := cfg.PartCount(size)
	session, err := u.svc.StartMultipart(ctx, remotePath, partCount, cfg.DownloadWeight)
	if err != nil {
		return result, err
	}
	slots, protoErr := checkSession(session, partCount)
	if protoErr != nil {
		return result, protoErr.WithPath(remotePath)
	}
	result.UploadID = session.UploadID
	result.State = StateSessionStarted
	u.debug("multipart session started",
		"path", remotePath, "upload_id", session.UploadID, "parts", partCount)

	result.State = StatePartsUploading
	parts, err := u.uploadParts(ctx, localPath, slots, cfg)
	if err != nil {
		result.State = StateAborted
		u.orphaned(remotePath, session.UploadID, err)
		return result, err
	}

	if err := u.svc.CompleteMultipart(ctx, session.UploadID, parts); err != nil {
		result.State = StateAborted
		u.orphaned(remotePath, session.UploadID, err)
		return result, err
	}

	result.Parts = parts
	result.State = StateFinalized
	u.debug("multipart session completed",
		"path", remotePath, "upload_id", session.UploadID, "size", size)
	return result, nil
}

// uploadParts reads the file sequentially and uploads each chunk to its slot.
// Admission stops after the first failure; parts already admitted finish.
func (u *Uploader) uploadParts(
	ctx context.Context,
	localPath string,
	slots []artifacttypes.PartSlot,
	cfg artifacttypes.MultipartConfig,
) ([]artifacttypes.CompletedPart, error) {
	chunks := pool.ForSize(int(cfg.ChunkSize))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxParallelParts)

	var mu sync.Mutex
	parts := make([]artifacttypes.CompletedPart, 0, len(slots))

	read := 0
	readErr := u.fs.ReadChunks(localPath, chunks, func(index int, chunk []byte) error {
		if index >= len(slots) {
			chunks.Put(chunk)
			return errors.NewProtocolError("multipartUpload", errors.ErrProtocol).
				WithPath(localPath).
				WithMessage("file grew during upload")
		}
		if gctx.Err() != nil {
			chunks.Put(chunk)
			return gctx.Err()
		}
		read++

		slot := slots[index]
		g.Go(func() error {
			defer chunks.Put(chunk)

			etag, err := u.uploadPart(ctx, slot, chunk)
			if err != nil {
				return err
			}

			mu.Lock()
			parts = append(parts, artifacttypes.CompletedPart{PartNumber: slot.PartNumber, ETag: etag})
			mu.Unlock()
			return nil
		})
		return nil
	})

	// Admitted parts always run to completion, so the group error is the
	// root cause whenever the reader stopped because of it
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, readErr
	}
	if read != len(slots) {
		return nil, errors.NewProtocolError("multipartUpload", errors.ErrProtocol).
			WithPath(localPath).
			WithMessage(fmt.Sprintf("read %d chunks for %d parts", read, len(slots)))
	}

	sort.Slice(parts, func(i, j int) bool {
		return parts[i].PartNumber < parts[j].PartNumber
	})
	return parts, nil
}

// uploadPart uploads one chunk through a write handle on the part URL
func (u *Uploader) uploadPart(ctx context.Context, slot artifacttypes.PartSlot, chunk []byte) (string, error) {
	f := httpfile.Open(slot.URL, httpfile.ModeWrite, nil, httpfile.WithHTTPClient(u.client))
	if _, err := f.Write(chunk); err != nil {
		return "", err
	}
	if err := f.Close(ctx); err != nil {
		if u.logger != nil {
			u.logger.Error("part upload failed", "part", slot.PartNumber, "error", err)
		}
		return "", err
	}
	return f.ETag(), nil
}

// checkSession validates a start-multipart response and fills in missing part
// numbers from slot positions
func checkSession(session *artifacttypes.MultipartSession, partCount int) ([]artifacttypes.PartSlot, *errors.Error) {
	if session == nil || session.UploadID == "" {
		return nil, errors.NewProtocolError("startMultipart", errors.ErrProtocol).
			WithMessage("response has no upload_id")
	}
	if len(session.Parts) != partCount {
		return nil, errors.NewProtocolError("startMultipart", errors.ErrProtocol).
			WithMessage(fmt.Sprintf("requested %d parts, got %d", partCount, len(session.Parts)))
	}

	slots := make([]artifacttypes.PartSlot, len(session.Parts))
	for i, part := range session.Parts {
		if part.URL == "" {
			return nil, errors.NewProtocolError("startMultipart", errors.ErrProtocol).
				WithMessage(fmt.Sprintf("part %d has no upload URL", i+1))
		}
		slots[i] = part
		if slots[i].PartNumber == 0 {
			slots[i].PartNumber = uint32(i + 1)
		}
	}
	return slots, nil
}

func (u *Uploader) debug(msg string, args ...any) {
	if u.logger != nil {
		u.logger.Debug(msg, args...)
	}
}

// orphaned logs a session left open after a failure
func (u *Uploader) orphaned(remotePath, uploadID string, err error) {
	if u.logger != nil {
		u.logger.Warn("multipart upload failed, session left open",
			"path", remotePath, "upload_id", uploadID, "error", err)
	}
}
