// Package testutil provides test utilities, mocks and an in-memory artifact
// server for testing.
// This package is internal and should only be used for testing within the module.
package testutil

import (
	"crypto/md5" //nolint:gosec // ETags only, not a security boundary
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
)

// StartCall records one put_file_start_multipart request.
type StartCall struct {
	Path           string
	PartCount      int
	DownloadWeight float64
}

// CompleteCall records one put_file_complete_multipart request.
type CompleteCall struct {
	UploadID string
	Parts    []artifacttypes.CompletedPart
}

type fakeUpload struct {
	path  string
	parts map[uint32][]byte
}

// FakeServer is an in-memory Hypha artifact manager with presigned storage
// URLs served from the same httptest server.
type FakeServer struct {
	*httptest.Server

	// Token, when set, is required as a bearer token on manager endpoints
	Token string

	// OmitPartNumbers drops part_number from start-multipart responses
	OmitPartNumbers bool

	// PartDelay delays the upload of a given part number
	PartDelay func(partNumber int) time.Duration

	mu            sync.Mutex
	files         map[string][]byte
	uploads       map[string]*fakeUpload
	calls         []string
	starts        []StartCall
	completes     []CompleteCall
	partOrder     []int
	partSizes     map[int]int
	failGet       map[string]int
	failPut       map[string]int
	failPart      map[int]int
	contentTypes  map[string]string
	partsInFlight atomic.Int32
	maxInFlight   atomic.Int32
	nextUploadID  int
	edits         []map[string]any
}

// NewFakeServer starts a new fake artifact server. Close it when done.
func NewFakeServer() *FakeServer {
	fs := &FakeServer{
		files:        make(map[string][]byte),
		uploads:      make(map[string]*fakeUpload),
		failGet:      make(map[string]int),
		failPut:      make(map[string]int),
		failPart:     make(map[int]int),
		partSizes:    make(map[int]int),
		contentTypes: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/public/services/artifact-manager/", fs.handleManager)
	mux.HandleFunc("/storage/", fs.handleStorage)
	mux.HandleFunc("/parts/", fs.handlePart)
	fs.Server = httptest.NewServer(mux)
	return fs
}

// AddFile stores a committed file.
func (fs *FakeServer) AddFile(path string, data []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[clean(path)] = append([]byte(nil), data...)
}

// File returns the stored content of path.
func (fs *FakeServer) File(path string) ([]byte, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, ok := fs.files[clean(path)]
	return data, ok
}

// Files returns the sorted paths of all stored files.
func (fs *FakeServer) Files() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ContentType returns the Content-Type the file was uploaded with.
func (fs *FakeServer) ContentType(path string) string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.contentTypes[clean(path)]
}

// FailGet makes downloads of path fail with status.
func (fs *FakeServer) FailGet(path string, status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failGet[clean(path)] = status
}

// FailPut makes uploads to path fail with status.
func (fs *FakeServer) FailPut(path string, status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failPut[clean(path)] = status
}

// FailPart makes uploads of the given part number fail with status.
func (fs *FakeServer) FailPart(partNumber, status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failPart[partNumber] = status
}

// Calls returns the manager methods called so far, in order.
func (fs *FakeServer) Calls() []string {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]string(nil), fs.calls...)
}

// CallCount returns how often method was called.
func (fs *FakeServer) CallCount(method string) int {
	n := 0
	for _, c := range fs.Calls() {
		if c == method {
			n++
		}
	}
	return n
}

// StartCalls returns the recorded start-multipart requests.
func (fs *FakeServer) StartCalls() []StartCall {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]StartCall(nil), fs.starts...)
}

// CompleteCalls returns the recorded complete-multipart requests.
func (fs *FakeServer) CompleteCalls() []CompleteCall {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]CompleteCall(nil), fs.completes...)
}

// PartOrder returns part numbers in the order their uploads finished.
func (fs *FakeServer) PartOrder() []int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]int(nil), fs.partOrder...)
}

// PartSizes returns the size of the last upload seen for each part number.
func (fs *FakeServer) PartSizes() map[int]int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	sizes := make(map[int]int, len(fs.partSizes))
	for k, v := range fs.partSizes {
		sizes[k] = v
	}
	return sizes
}

// MaxPartsInFlight returns the highest number of concurrent part uploads seen.
func (fs *FakeServer) MaxPartsInFlight() int {
	return int(fs.maxInFlight.Load())
}

// Edits returns the recorded edit request bodies.
func (fs *FakeServer) Edits() []map[string]any {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([]map[string]any(nil), fs.edits...)
}

func (fs *FakeServer) handleManager(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/public/services/artifact-manager/")

	fs.mu.Lock()
	fs.calls = append(fs.calls, method)
	fs.mu.Unlock()

	if fs.Token != "" && r.Header.Get("Authorization") != "Bearer "+fs.Token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	params := map[string]any{}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	} else {
		for k, v := range r.URL.Query() {
			params[k] = v[0]
		}
	}
	if _, ok := params["artifact_id"]; !ok {
		http.Error(w, "missing artifact_id", http.StatusBadRequest)
		return
	}

	switch method {
	case "list_files":
		fs.listFiles(w, str(params["dir_path"]))
	case "get_file":
		fs.getFile(w, str(params["file_path"]))
	case "put_file":
		writeJSON(w, fs.URL+"/storage/"+clean(str(params["file_path"])))
	case "remove_file":
		fs.removeFile(w, str(params["file_path"]))
	case "put_file_start_multipart":
		fs.startMultipart(w, params)
	case "put_file_complete_multipart":
		fs.completeMultipart(w, params)
	case "edit":
		fs.mu.Lock()
		fs.edits = append(fs.edits, params)
		fs.mu.Unlock()
		writeJSON(w, nil)
	case "commit", "discard":
		writeJSON(w, nil)
	default:
		http.NotFound(w, r)
	}
}

func (fs *FakeServer) listFiles(w http.ResponseWriter, dir string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prefix := clean(dir)
	if prefix != "" {
		prefix += "/"
	}

	seen := map[string]bool{}
	entries := []map[string]any{}
	paths := make([]string, 0, len(fs.files))
	for p := range fs.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if !strings.HasPrefix(p, prefix) {
			continue
		}
		rest := strings.TrimPrefix(p, prefix)
		name, _, isDir := strings.Cut(rest, "/")
		if seen[name] {
			continue
		}
		seen[name] = true
		if isDir {
			entries = append(entries, map[string]any{"name": name, "type": "directory", "size": 0})
			continue
		}
		entries = append(entries, map[string]any{
			"name":          name,
			"type":          "file",
			"size":          len(fs.files[p]),
			"last_modified": 1.7e9,
		})
	}
	writeJSON(w, entries)
}

func (fs *FakeServer) getFile(w http.ResponseWriter, path string) {
	fs.mu.Lock()
	_, ok := fs.files[clean(path)]
	fs.mu.Unlock()
	if !ok {
		http.Error(w, "file not found: "+path, http.StatusNotFound)
		return
	}
	writeJSON(w, fs.URL+"/storage/"+clean(path))
}

func (fs *FakeServer) removeFile(w http.ResponseWriter, path string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if _, ok := fs.files[clean(path)]; !ok {
		http.Error(w, "file not found: "+path, http.StatusNotFound)
		return
	}
	delete(fs.files, clean(path))
	writeJSON(w, nil)
}

func (fs *FakeServer) startMultipart(w http.ResponseWriter, params map[string]any) {
	path := clean(str(params["file_path"]))
	count, _ := params["part_count"].(float64)
	weight, _ := params["download_weight"].(float64)

	fs.mu.Lock()
	fs.nextUploadID++
	uploadID := fmt.Sprintf("upload-%d", fs.nextUploadID)
	fs.uploads[uploadID] = &fakeUpload{path: path, parts: make(map[uint32][]byte)}
	fs.starts = append(fs.starts, StartCall{Path: path, PartCount: int(count), DownloadWeight: weight})
	fs.mu.Unlock()

	parts := make([]map[string]any, 0, int(count))
	for i := 1; i <= int(count); i++ {
		part := map[string]any{"url": fmt.Sprintf("%s/parts/%s/%d", fs.URL, uploadID, i)}
		if !fs.OmitPartNumbers {
			part["part_number"] = i
		}
		parts = append(parts, part)
	}
	writeJSON(w, map[string]any{"upload_id": uploadID, "parts": parts})
}

func (fs *FakeServer) completeMultipart(w http.ResponseWriter, params map[string]any) {
	uploadID := str(params["upload_id"])
	raw, _ := json.Marshal(params["parts"])
	var parts []artifacttypes.CompletedPart
	if err := json.Unmarshal(raw, &parts); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.completes = append(fs.completes, CompleteCall{UploadID: uploadID, Parts: parts})

	upload, ok := fs.uploads[uploadID]
	if !ok {
		http.Error(w, "unknown upload id", http.StatusNotFound)
		return
	}

	var assembled []byte
	for _, part := range parts {
		data, ok := upload.parts[part.PartNumber]
		if !ok || part.ETag != etag(data) {
			http.Error(w, fmt.Sprintf("invalid part %d", part.PartNumber), http.StatusBadRequest)
			return
		}
		assembled = append(assembled, data...)
	}
	fs.files[upload.path] = assembled
	delete(fs.uploads, uploadID)
	writeJSON(w, nil)
}

func (fs *FakeServer) handleStorage(w http.ResponseWriter, r *http.Request) {
	path := clean(strings.TrimPrefix(r.URL.Path, "/storage/"))

	switch r.Method {
	case http.MethodGet:
		fs.mu.Lock()
		status, failing := fs.failGet[path]
		data, ok := fs.files[path]
		fs.mu.Unlock()
		if failing {
			http.Error(w, "injected failure", status)
			return
		}
		if !ok {
			http.Error(w, "no such key", http.StatusNotFound)
			return
		}
		serveRange(w, r, data)
	case http.MethodPut:
		fs.mu.Lock()
		status, failing := fs.failPut[path]
		fs.mu.Unlock()
		if failing {
			http.Error(w, "injected failure", status)
			return
		}
		data, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fs.mu.Lock()
		fs.files[path] = data
		fs.contentTypes[path] = r.Header.Get("Content-Type")
		fs.mu.Unlock()
		w.Header().Set("ETag", `"`+etag(data)+`"`)
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (fs *FakeServer) handlePart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uploadID, rawNumber, _ := strings.Cut(strings.TrimPrefix(r.URL.Path, "/parts/"), "/")
	partNumber, err := strconv.Atoi(rawNumber)
	if err != nil {
		http.Error(w, "bad part number", http.StatusBadRequest)
		return
	}

	inFlight := fs.partsInFlight.Add(1)
	defer fs.partsInFlight.Add(-1)
	for {
		seen := fs.maxInFlight.Load()
		if inFlight <= seen || fs.maxInFlight.CompareAndSwap(seen, inFlight) {
			break
		}
	}

	if fs.PartDelay != nil {
		time.Sleep(fs.PartDelay(partNumber))
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if status, failing := fs.failPart[partNumber]; failing {
		http.Error(w, "injected failure", status)
		return
	}
	upload, ok := fs.uploads[uploadID]
	if !ok {
		http.Error(w, "unknown upload id", http.StatusNotFound)
		return
	}
	upload.parts[uint32(partNumber)] = data
	fs.partOrder = append(fs.partOrder, partNumber)
	fs.partSizes[partNumber] = len(data)
	w.Header().Set("ETag", `"`+etag(data)+`"`)
	w.WriteHeader(http.StatusOK)
}

// serveRange writes data honoring a "bytes=a-b" Range header
func serveRange(w http.ResponseWriter, r *http.Request, data []byte) {
	header := r.Header.Get("Range")
	if header == "" {
		_, _ = w.Write(data)
		return
	}

	spec := strings.TrimPrefix(header, "bytes=")
	rawStart, rawEnd, _ := strings.Cut(spec, "-")
	start, err1 := strconv.Atoi(rawStart)
	end, err2 := len(data)-1, error(nil)
	if rawEnd != "" {
		end, err2 = strconv.Atoi(rawEnd)
	}
	if err1 != nil || err2 != nil || start > end || start >= len(data) {
		http.Error(w, "invalid range", http.StatusRequestedRangeNotSatisfiable)
		return
	}
	if end >= len(data) {
		end = len(data) - 1
	}
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, len(data)))
	w.WriteHeader(http.StatusPartialContent)
	_, _ = w.Write(data[start : end+1])
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func etag(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // see import
	return hex.EncodeToString(sum[:])
}

func clean(path string) string {
	return strings.Trim(path, "/")
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
