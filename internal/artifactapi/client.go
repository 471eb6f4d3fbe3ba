package artifactapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
)

// maxErrorBody bounds how much of a failed response is copied into errors.
const maxErrorBody = 4 * 1024

// Config holds the settings of an artifact-manager client.
type Config struct {
	// ServerURL is the Hypha server, e.g. https://hypha.aicell.io
	ServerURL string

	// Workspace and Alias identify the artifact
	Workspace string
	Alias     string

	// Token is sent as a bearer token when set
	Token string

	// HTTPClient performs the requests
	HTTPClient *http.Client

	// UseProxy and UseLocalURL are forwarded to URL-issuing endpoints when set
	UseProxy    *bool
	UseLocalURL *bool

	// Logger receives request diagnostics; nil disables logging
	Logger *slog.Logger
}

// Client talks to the Hypha artifact manager.
type Client struct {
	baseURL     string
	artifactID  string
	token       string
	httpClient  *http.Client
	useProxy    *bool
	useLocalURL *bool
	logger      *slog.Logger
}

var (
	_ artifacttypes.Service      = (*Client)(nil)
	_ artifacttypes.StateService = (*Client)(nil)
)

// New creates a new artifact-manager client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	return &Client{
		baseURL:     strings.TrimRight(cfg.ServerURL, "/") + ServicePath,
		artifactID:  cfg.Workspace + "/" + cfg.Alias,
		token:       cfg.Token,
		httpClient:  httpClient,
		useProxy:    cfg.UseProxy,
		useLocalURL: cfg.UseLocalURL,
		logger:      cfg.Logger,
	}
}

// ArtifactID returns the fully qualified artifact id.
func (c *Client) ArtifactID() string {
	return c.artifactID
}

// wireEntry is the listing entry as returned by list_files
type wireEntry struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Size         uint64   `json:"size"`
	LastModified *float64 `json:"last_modified"`
}

// ListFiles lists the direct children of dir.
func (c *Client) ListFiles(ctx context.Context, dir, version string) ([]artifacttypes.Entry, error) {
	query := url.Values{}
	query.Set("dir_path", dir)
	if version != "" {
		query.Set("version", version)
	}

	body, err := c.get(ctx, MethodListFiles, query)
	if err != nil {
		return nil, err.WithPath(dir)
	}

	var items []wireEntry
	if decodeErr := json.Unmarshal(body, &items); decodeErr != nil {
		return nil, errors.NewProtocolError(string(MethodListFiles), decodeErr).WithPath(dir)
	}

	entries := make([]artifacttypes.Entry, 0, len(items))
	for _, item := range items {
		entry := artifacttypes.Entry{
			Name: item.Name,
			Type: artifacttypes.EntryType(item.Type),
			Size: item.Size,
		}
		if item.LastModified != nil {
			sec, frac := math.Modf(*item.LastModified)
			ts := time.Unix(int64(sec), int64(frac*1e9)).UTC()
			entry.LastModified = &ts
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// GetFileURL returns a download URL for path.
func (c *Client) GetFileURL(ctx context.Context, path, version string) (string, error) {
	query := url.Values{}
	query.Set("file_path", path)
	if version != "" {
		query.Set("version", version)
	}
	if c.useProxy != nil {
		query.Set("use_proxy", strconv.FormatBool(*c.useProxy))
	}
	if c.useLocalURL != nil {
		query.Set("use_local_url", strconv.FormatBool(*c.useLocalURL))
	}

	body, err := c.get(ctx, MethodGetFile, query)
	if err != nil {
		return "", err.WithPath(path)
	}
	return unquoteURL(body), nil
}

// PutFileURL returns an upload URL for path.
func (c *Client) PutFileURL(ctx context.Context, path string) (string, error) {
	params := c.params(map[string]any{"file_path": path})
	c.addURLFlags(params)

	body, err := c.post(ctx, MethodPutFile, params)
	if err != nil {
		return "", err.WithPath(path)
	}
	return unquoteURL(body), nil
}

// RemoveFile deletes a single file.
func (c *Client) RemoveFile(ctx context.Context, path string) error {
	if _, err := c.post(ctx, MethodRemoveFile, c.params(map[string]any{"file_path": path})); err != nil {
		return err.WithPath(path)
	}
	return nil
}

// wireSession is the put_file_start_multipart response
type wireSession struct {
	UploadID string `json:"upload_id"`
	Parts    []struct {
		PartNumber *uint32 `json:"part_number"`
		URL        string  `json:"url"`
	} `json:"parts"`
}

// StartMultipart opens a multipart session with partCount slots. Slots whose
// part number is absent in the response carry a zero PartNumber. A
// non-positive downloadWeight is sent as the default weight.
func (c *Client) StartMultipart(
	ctx context.Context,
	path string,
	partCount int,
	downloadWeight float64,
) (*artifacttypes.MultipartSession, error) {
	if downloadWeight <= 0 {
		downloadWeight = artifacttypes.DefaultDownloadWeight
	}
	params := c.params(map[string]any{
		"file_path":       path,
		"part_count":      partCount,
		"download_weight": downloadWeight,
	})
	c.addURLFlags(params)

	body, err := c.post(ctx, MethodStartMultipart, params)
	if err != nil {
		return nil, err.WithPath(path)
	}

	var resp wireSession
	if decodeErr := json.Unmarshal(body, &resp); decodeErr != nil {
		return nil, errors.NewProtocolError(string(MethodStartMultipart), decodeErr).WithPath(path)
	}

	session := &artifacttypes.MultipartSession{
		UploadID: resp.UploadID,
		Parts:    make([]artifacttypes.PartSlot, 0, len(resp.Parts)),
	}
	for _, part := range resp.Parts {
		slot := artifacttypes.PartSlot{URL: unquoteURL([]byte(part.URL))}
		if part.PartNumber != nil {
			slot.PartNumber = *part.PartNumber
		}
		session.Parts = append(session.Parts, slot)
	}
	return session, nil
}

// CompleteMultipart finalizes a multipart session.
func (c *Client) CompleteMultipart(
	ctx context.Context,
	uploadID string,
	parts []artifacttypes.CompletedPart,
) error {
	params := c.params(map[string]any{
		"upload_id": uploadID,
		"parts":     parts,
	})
	if _, err := c.post(ctx, MethodCompleteMultipart, params); err != nil {
		return err
	}
	return nil
}

// Edit updates the artifact metadata.
func (c *Client) Edit(ctx context.Context, req artifacttypes.EditRequest) error {
	params := c.params(map[string]any{"stage": req.Stage})
	if req.Manifest != nil {
		params["manifest"] = req.Manifest
	}
	if req.Type != "" {
		params["type"] = req.Type
	}
	if req.Config != nil {
		params["config"] = req.Config
	}
	if req.Secrets != nil {
		params["secrets"] = req.Secrets
	}
	if req.Version != "" {
		params["version"] = req.Version
	}
	if req.Comment != "" {
		params["comment"] = req.Comment
	}
	if _, err := c.post(ctx, MethodEdit, params); err != nil {
		return err
	}
	return nil
}

// Commit commits the staged changes.
func (c *Client) Commit(ctx context.Context, version, comment string) error {
	params := c.params(nil)
	if version != "" {
		params["version"] = version
	}
	if comment != "" {
		params["comment"] = comment
	}
	if _, err := c.post(ctx, MethodCommit, params); err != nil {
		return err
	}
	return nil
}

// Discard drops the staged changes.
func (c *Client) Discard(ctx context.Context) error {
	if _, err := c.post(ctx, MethodDiscard, c.params(nil)); err != nil {
		return err
	}
	return nil
}

// params returns request parameters extended with the artifact id
func (c *Client) params(extra map[string]any) map[string]any {
	params := make(map[string]any, len(extra)+1)
	for k, v := range extra {
		params[k] = v
	}
	params["artifact_id"] = c.artifactID
	return params
}

// addURLFlags forwards the proxy and local URL preferences
func (c *Client) addURLFlags(params map[string]any) {
	if c.useProxy != nil {
		params["use_proxy"] = *c.useProxy
	}
	if c.useLocalURL != nil {
		params["use_local_url"] = *c.useLocalURL
	}
}

// get issues a GET request against method with the given query
func (c *Client) get(ctx context.Context, method Method, query url.Values) ([]byte, *errors.Error) {
	query.Set("artifact_id", c.artifactID)
	endpoint := c.baseURL + "/" + string(method) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewConfigError(string(method), err)
	}
	return c.do(req, method)
}

// post issues a POST request against method with a JSON body
func (c *Client) post(ctx context.Context, method Method, params map[string]any) ([]byte, *errors.Error) {
	payload, err := json.Marshal(params)
	if err != nil {
		return nil, errors.NewConfigError(string(method), err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/"+string(method),
		bytes.NewReader(payload),
	)
	if err != nil {
		return nil, errors.NewConfigError(string(method), err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, method)
}

// do sends req and returns the body of a 200 response
func (c *Client) do(req *http.Request, method Method) ([]byte, *errors.Error) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewTransportError(string(method), 0, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if c.logger != nil {
		c.logger.Debug("artifact manager request",
			"method", string(method),
			"status", resp.StatusCode,
			"duration", time.Since(start))
	}

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.NewTransportError(
			string(method),
			resp.StatusCode,
			fmt.Errorf("unexpected error: %s", strings.TrimSpace(string(text))),
		)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewTransportError(string(method), resp.StatusCode, err)
	}
	return body, nil
}

// unquoteURL strips whitespace and surrounding quotes from a URL response
func unquoteURL(body []byte) string {
	return strings.Trim(strings.TrimSpace(string(body)), `"`)
}
