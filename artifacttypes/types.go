// Package artifacttypes provides shared type definitions for the artifact module.
package artifacttypes

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"
)

// Size constants used by the multipart configuration.
const (
	// MiB is one mebibyte
	MiB = 1024 * 1024

	// MinChunkSize is the smallest chunk size accepted for multipart uploads
	MinChunkSize = 5 * MiB

	// DefaultChunkSize is the default multipart chunk size
	DefaultChunkSize = 6 * MiB

	// DefaultThreshold is the file size above which multipart upload engages
	DefaultThreshold = 100 * MiB

	// DefaultMaxParallelParts is the default number of concurrently uploaded parts
	DefaultMaxParallelParts = 4

	// DefaultConcurrency is the default number of concurrently transferred files
	DefaultConcurrency = 4

	// DefaultDownloadWeight is the download weight sent when a multipart session starts
	DefaultDownloadWeight = 1.0
)

// EntryType distinguishes files from directories in a listing.
type EntryType string

// Listing entry types
const (
	// EntryFile is a regular file
	EntryFile EntryType = "file"

	// EntryDirectory is a directory
	EntryDirectory EntryType = "directory"
)

// Entry describes one file or directory returned by a listing.
type Entry struct {
	// Name is the base name of the entry
	Name string `json:"name"`

	// Type is either file or directory
	Type EntryType `json:"type"`

	// Size is the file size in bytes, zero for directories
	Size uint64 `json:"size"`

	// LastModified is the modification time, if known
	LastModified *time.Time `json:"last_modified,omitempty"`
}

// IsDir reports whether the entry is a directory.
func (e Entry) IsDir() bool {
	return e.Type == EntryDirectory
}

// TransferPair is a resolved source and destination file.
type TransferPair struct {
	Source      string
	Destination string
}

// Direction is the direction of a transfer.
type Direction int

// Transfer directions
const (
	// DirectionPut copies local files to the artifact
	DirectionPut Direction = iota

	// DirectionGet copies artifact files to the local filesystem
	DirectionGet

	// DirectionCopy copies files within the artifact
	DirectionCopy
)

// String returns the operation name reported in progress events.
func (d Direction) String() string {
	switch d {
	case DirectionPut:
		return "upload"
	case DirectionGet:
		return "download"
	case DirectionCopy:
		return "copy"
	default:
		return "unknown"
	}
}

// ErrorPolicy decides what happens when a single file fails.
type ErrorPolicy string

// Error policies
const (
	// ErrorRaise reports the failure and returns it to the caller
	ErrorRaise ErrorPolicy = "raise"

	// ErrorIgnore reports the failure and continues with the remaining files
	ErrorIgnore ErrorPolicy = "ignore"
)

// EventKind is the variant of a ProgressEvent.
type EventKind string

// Progress event kinds
const (
	// EventStart is emitted once before any file is transferred
	EventStart EventKind = "start"

	// EventInProgress is emitted when a file is admitted
	EventInProgress EventKind = "in_progress"

	// EventSuccess is emitted when a file transferred cleanly
	EventSuccess EventKind = "success"

	// EventError is emitted when a file failed
	EventError EventKind = "error"
)

// ProgressEvent reports the state of a transfer run. Which fields are set
// depends on Kind: Total for start, Path and Index for in-progress, Path for
// success, Path and Message for error.
type ProgressEvent struct {
	Kind      EventKind `json:"type"`
	Operation string    `json:"operation"`
	Total     int       `json:"total,omitempty"`
	Path      string    `json:"file,omitempty"`
	Index     int       `json:"current_file,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// ProgressFunc receives progress events. It is never invoked concurrently.
type ProgressFunc func(ProgressEvent)

// PartSlot is one upload target handed out by a multipart session.
type PartSlot struct {
	// PartNumber is the remote part number, starting at 1
	PartNumber uint32

	// URL is the presigned upload URL for this part
	URL string
}

// MultipartSession is an open multipart upload.
type MultipartSession struct {
	// UploadID identifies the session on the server
	UploadID string

	// Parts holds one slot per chunk, in chunk order
	Parts []PartSlot
}

// CompletedPart records one uploaded part.
type CompletedPart struct {
	PartNumber uint32 `json:"part_number"`
	ETag       string `json:"etag"`
}

// MultipartConfig controls when and how files are uploaded in parts.
type MultipartConfig struct {
	// ChunkSize is the size of each part in bytes, at least MinChunkSize
	ChunkSize int64

	// Threshold is the file size above which multipart upload engages
	Threshold int64

	// MaxParallelParts bounds the number of parts in flight per file
	MaxParallelParts int

	// ForceEnable engages multipart for any file larger than one chunk
	ForceEnable bool

	// DownloadWeight is the server-side download cost of the uploaded file.
	// Zero means DefaultDownloadWeight.
	DownloadWeight float64
}

// DefaultMultipartConfig returns the default multipart configuration.
func DefaultMultipartConfig() MultipartConfig {
	return MultipartConfig{
		ChunkSize:        DefaultChunkSize,
		Threshold:        DefaultThreshold,
		MaxParallelParts: DefaultMaxParallelParts,
		DownloadWeight:   DefaultDownloadWeight,
	}
}

// ShouldUseMultipart reports whether a file of the given size is uploaded in
// parts. A file that fits in a single chunk never is.
func (c MultipartConfig) ShouldUseMultipart(size int64) bool {
	if size <= c.ChunkSize {
		return false
	}
	return c.ForceEnable || size > c.Threshold
}

// PartCount returns the number of chunks needed for a file of the given size.
func (c MultipartConfig) PartCount(size int64) int {
	if size <= 0 || c.ChunkSize <= 0 {
		return 0
	}
	return int((size + c.ChunkSize - 1) / c.ChunkSize) // Ceiling division
}

// Service is the artifact manager surface consumed by the transfer engine.
// The HTTP client in this module and the s3backend package implement it.
type Service interface {
	// ListFiles lists the direct children of dir.
	ListFiles(ctx context.Context, dir, version string) ([]Entry, error)

	// GetFileURL returns a download URL for path.
	GetFileURL(ctx context.Context, path, version string) (string, error)

	// PutFileURL returns an upload URL for path.
	PutFileURL(ctx context.Context, path string) (string, error)

	// RemoveFile deletes a single file.
	RemoveFile(ctx context.Context, path string) error

	// StartMultipart opens a multipart session with partCount slots.
	StartMultipart(ctx context.Context, path string, partCount int, downloadWeight float64) (*MultipartSession, error)

	// CompleteMultipart finalizes a session. Parts are sorted by part number.
	CompleteMultipart(ctx context.Context, uploadID string, parts []CompletedPart) error
}

// EditRequest describes a metadata edit of the artifact.
type EditRequest struct {
	Manifest map[string]any    `json:"manifest,omitempty"`
	Type     string            `json:"type,omitempty"`
	Config   map[string]any    `json:"config,omitempty"`
	Secrets  map[string]string `json:"secrets,omitempty"`
	Version  string            `json:"version,omitempty"`
	Comment  string            `json:"comment,omitempty"`
	Stage    bool              `json:"stage"`
}

// StateService manages the staged state of an artifact. Backends without a
// notion of versions do not implement it.
type StateService interface {
	Edit(ctx context.Context, req EditRequest) error
	Commit(ctx context.Context, version, comment string) error
	Discard(ctx context.Context) error
}

// ClientConfig holds the configuration for the artifact client.
type ClientConfig struct {
	// ServerURL is the base URL of the Hypha server
	ServerURL string

	// ArtifactID is the artifact alias, optionally prefixed with "workspace/"
	ArtifactID string

	// Workspace is the workspace owning the artifact
	Workspace string

	// Token is the bearer token sent with every request
	Token string

	// Timeout is the per-request HTTP timeout
	Timeout time.Duration

	// HTTPClient overrides the HTTP client used for all requests
	HTTPClient *http.Client

	// DisableSSL skips TLS certificate verification
	DisableSSL bool

	// UseProxy asks the server for proxied URLs when set
	UseProxy *bool

	// UseLocalURL asks the server for cluster-local URLs when set
	UseLocalURL *bool

	// Service overrides the artifact service implementation
	Service Service

	// Filesystem is the local filesystem, the OS root by default
	Filesystem billy.Filesystem

	// Logger receives diagnostic output; nil disables logging
	Logger *slog.Logger

	// Multipart holds the default multipart settings
	Multipart MultipartConfig

	// Concurrency bounds the number of files transferred at once
	Concurrency int
}

// Option is a functional option for configuring the client.
type Option func(*ClientConfig)

// TransferConfig holds per-call transfer settings.
type TransferConfig struct {
	// Recursive expands directories into their files
	Recursive bool

	// MaxDepth limits recursion; zero means unbounded
	MaxDepth int

	// Version selects the artifact version to read from
	Version string

	// Progress receives progress events; nil disables reporting
	Progress ProgressFunc

	// OnError is the per-file error policy
	OnError ErrorPolicy

	// Multipart overrides the client multipart settings
	Multipart *MultipartConfig

	// Concurrency overrides the client concurrency
	Concurrency int
}

// TransferOption is a functional option for a single transfer call.
type TransferOption func(*TransferConfig)
