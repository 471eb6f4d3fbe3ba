package httpfile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aicell-lab/hypha-artifact/errors"
)

// Mode is the mode a File was opened with.
type Mode int

// File modes
const (
	// ModeRead opens the file for range reads
	ModeRead Mode = iota

	// ModeWrite opens the file for a buffered whole-file upload
	ModeWrite

	// ModeAppend behaves like ModeWrite with an initially empty buffer
	ModeAppend
)

// String returns the short mode name.
func (m Mode) String() string {
	switch m {
	case ModeRead:
		return "r"
	case ModeWrite:
		return "w"
	case ModeAppend:
		return "a"
	default:
		return "?"
	}
}

// Writable reports whether the mode buffers writes.
func (m Mode) Writable() bool {
	return m == ModeWrite || m == ModeAppend
}

// ParseMode parses Python-style mode strings such as "rb", "w" or "ab".
func ParseMode(s string) (Mode, error) {
	switch {
	case strings.Contains(s, "r"):
		return ModeRead, nil
	case strings.Contains(s, "w"):
		return ModeWrite, nil
	case strings.Contains(s, "a"):
		return ModeAppend, nil
	default:
		return 0, errors.NewConfigError("open", errors.ErrInvalidConfig).
			WithMessage(fmt.Sprintf("unsupported mode %q", s))
	}
}

// maxErrorBody bounds how much of a failed response is copied into errors.
const maxErrorBody = 4 * 1024

// URLFunc resolves the presigned URL of a file.
type URLFunc func(ctx context.Context) (string, error)

// CommitFunc is called after a successful upload when auto-commit is enabled.
type CommitFunc func(ctx context.Context) error

// Option configures a File.
type Option func(*File)

// WithHTTPClient sets the HTTP client used for transfers.
func WithHTTPClient(client *http.Client) Option {
	return func(f *File) {
		if client != nil {
			f.client = client
		}
	}
}

// WithContentType sets the Content-Type sent with uploads.
// Default is application/octet-stream.
func WithContentType(contentType string) Option {
	return func(f *File) {
		if contentType != "" {
			f.contentType = contentType
		}
	}
}

// WithAutoCommit registers a callback invoked after a non-empty upload.
func WithAutoCommit(commit CommitFunc) Option {
	return func(f *File) {
		f.commit = commit
	}
}

// File is a handle on one remote file.
type File struct {
	name        string
	mode        Mode
	resolve     URLFunc
	client      *http.Client
	contentType string
	commit      CommitFunc

	mu     sync.Mutex
	url    string
	pos    int64
	buf    *bytes.Buffer
	etag   string
	closed bool
}

// Open returns a handle on name. No request is made until the first read or
// the closing upload. When name is an absolute http(s) URL it is used as is
// and resolve may be nil.
func Open(name string, mode Mode, resolve URLFunc, opts ...Option) *File {
	f := &File{
		name:        name,
		mode:        mode,
		resolve:     resolve,
		client:      &http.Client{Timeout: 60 * time.Second},
		contentType: "application/octet-stream",
	}
	if isAbsoluteURL(name) {
		f.url = name
	}
	if mode.Writable() {
		f.buf = &bytes.Buffer{}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the path or URL the file was opened with.
func (f *File) Name() string {
	return f.name
}

// Mode returns the mode the file was opened with.
func (f *File) Mode() Mode {
	return f.mode
}

// Tell returns the current position.
func (f *File) Tell() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pos
}

// Seek sets the position for the next read.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = f.pos + offset
	default:
		return f.pos, errors.NewConfigError("seek", errors.ErrInvalidConfig).
			WithPath(f.name).
			WithMessage(fmt.Sprintf("unsupported whence %d", whence))
	}
	if next < 0 {
		return f.pos, errors.NewConfigError("seek", errors.ErrInvalidConfig).
			WithPath(f.name).
			WithMessage("negative position")
	}
	f.pos = next
	return f.pos, nil
}

// ETag returns the entity tag of the last upload without surrounding quotes.
func (f *File) ETag() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.etag
}

// Closed reports whether Close has been called.
func (f *File) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Read reads up to n bytes from the current position using a byte-range
// request. A negative n reads to the end of the file. Reading past the end
// returns io.EOF.
func (f *File) Read(ctx context.Context, n int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, errors.NewConfigError("read", errors.ErrInvalidConfig).
			WithPath(f.name).
			WithMessage("file is closed")
	}
	if f.mode != ModeRead {
		return nil, errors.NewConfigError("read", errors.ErrInvalidConfig).
			WithPath(f.name).
			WithMessage("file not open for reading")
	}
	if n == 0 {
		return []byte{}, nil
	}

	url, err := f.resolveURL(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.NewConfigError("read", err).WithPath(f.name)
	}
	switch {
	case n > 0:
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", f.pos, f.pos+int64(n)-1))
	case f.pos > 0:
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", f.pos))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.NewTransportError("read", 0, err).WithPath(f.name)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		return nil, io.EOF
	default:
		return nil, statusError("read", f.name, resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError("read", resp.StatusCode, err).WithPath(f.name)
	}
	// Servers ignoring the range header return the whole object
	if resp.StatusCode == http.StatusOK && req.Header.Get("Range") != "" {
		if f.pos >= int64(len(data)) {
			return nil, io.EOF
		}
		data = data[f.pos:]
		if n > 0 && len(data) > n {
			data = data[:n]
		}
	}
	f.pos += int64(len(data))
	return data, nil
}

// ReadAll reads from the current position to the end of the file.
func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	return f.Read(ctx, -1)
}

// Write appends p to the upload buffer.
func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return 0, errors.NewConfigError("write", errors.ErrInvalidConfig).
			WithPath(f.name).
			WithMessage("file is closed")
	}
	if !f.mode.Writable() {
		return 0, errors.NewConfigError("write", errors.ErrInvalidConfig).
			WithPath(f.name).
			WithMessage("file not open for writing")
	}

	n, _ := f.buf.Write(p)
	f.pos += int64(n)
	return n, nil
}

// Close uploads the buffered content of a writable file when it is not empty
// and then runs the auto-commit callback. The buffer is released even when
// the upload fails. Closing twice is a no-op.
func (f *File) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	defer func() {
		f.closed = true
		f.buf = nil
	}()

	if !f.mode.Writable() || f.buf.Len() == 0 {
		return nil
	}

	if err := f.upload(ctx); err != nil {
		return err
	}
	if f.commit != nil {
		if err := f.commit(ctx); err != nil {
			return err
		}
	}
	return nil
}

// upload sends the buffer in a single PUT request
func (f *File) upload(ctx context.Context) error {
	url, err := f.resolveURL(ctx)
	if err != nil {
		return err
	}

	size := f.buf.Len()
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(f.buf.Bytes()))
	if err != nil {
		return errors.NewConfigError("upload", err).WithPath(f.name)
	}
	req.ContentLength = int64(size)
	req.Header.Set("Content-Type", f.contentType)
	req.Header.Set("Content-Length", strconv.Itoa(size))

	resp, err := f.client.Do(req)
	if err != nil {
		return errors.NewTransportError("upload", 0, err).WithPath(f.name)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError("upload", f.name, resp)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	f.etag = strings.Trim(resp.Header.Get("ETag"), `"`)
	return nil
}

// resolveURL returns the cached URL or resolves it once
func (f *File) resolveURL(ctx context.Context) (string, error) {
	if f.url != "" {
		return f.url, nil
	}
	if f.resolve == nil {
		return "", errors.NewConfigError("resolve", errors.ErrInvalidConfig).
			WithPath(f.name).
			WithMessage("no URL resolver")
	}

	url, err := f.resolve(ctx)
	if err != nil {
		return "", err
	}
	f.url = strings.Trim(strings.TrimSpace(url), `"`)
	return f.url, nil
}

// statusError builds a transport error from a failed response
func statusError(op, name string, resp *http.Response) error {
	text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return errors.NewTransportError(
		op,
		resp.StatusCode,
		fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(text))),
	).WithPath(name)
}

// isAbsoluteURL reports whether name is an http(s) URL
func isAbsoluteURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}
