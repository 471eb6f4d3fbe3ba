package artifact

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"time"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/internal/artifactapi"
	"github.com/aicell-lab/hypha-artifact/internal/localfs"
	"github.com/aicell-lab/hypha-artifact/internal/operations/copy"
	"github.com/aicell-lab/hypha-artifact/internal/operations/download"
	"github.com/aicell-lab/hypha-artifact/internal/operations/upload"
	"github.com/aicell-lab/hypha-artifact/internal/scanner"
	"github.com/aicell-lab/hypha-artifact/internal/transfer/manager"
	"github.com/aicell-lab/hypha-artifact/internal/validation"
)

// defaultTimeout is the per-request timeout of the default HTTP client.
const defaultTimeout = 60 * time.Second

// Client represents a handle on one Hypha artifact.
// It is safe for concurrent use.
type Client struct {
	// cfg is the resolved client configuration
	cfg artifacttypes.ClientConfig

	// artifactID is "workspace/alias", or the configured id for custom services
	artifactID string

	// svc issues listings and presigned URLs
	svc artifacttypes.Service

	// httpClient moves bytes to and from presigned URLs
	httpClient *http.Client

	// fs is the local filesystem
	fs *localfs.FS

	uploader   *upload.Uploader
	downloader *download.Downloader
	copier     *copy.Copier
	manager    *manager.Manager
	logger     *slog.Logger
}

// New creates a new artifact client with the provided options.
// Either a server URL and artifact id, or a custom service, must be given.
//
// Example:
//
//	client, err := artifact.New(
//	    artifact.WithServerURL("https://hypha.aicell.io"),
//	    artifact.WithArtifactID("dataset"),
//	    artifact.WithWorkspace("my-workspace"),
//	)
func New(opts ...artifacttypes.Option) (*Client, error) {
	cfg := artifacttypes.ClientConfig{
		Timeout:     defaultTimeout,
		Multipart:   artifacttypes.DefaultMultipartConfig(),
		Concurrency: artifacttypes.DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := validation.ValidateMultipartConfig(cfg.Multipart, false); err != nil {
		return nil, err
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg.Timeout, cfg.DisableSSL)
	}

	svc := cfg.Service
	artifactID := cfg.ArtifactID
	if svc == nil {
		if err := validation.ValidateServerURL(cfg.ServerURL); err != nil {
			return nil, err
		}
		workspace, alias, err := validation.ParseArtifactID(cfg.ArtifactID, cfg.Workspace)
		if err != nil {
			return nil, err
		}
		api := artifactapi.New(artifactapi.Config{
			ServerURL:   cfg.ServerURL,
			Workspace:   workspace,
			Alias:       alias,
			Token:       cfg.Token,
			HTTPClient:  httpClient,
			UseProxy:    cfg.UseProxy,
			UseLocalURL: cfg.UseLocalURL,
			Logger:      cfg.Logger,
		})
		svc = api
		artifactID = api.ArtifactID()
	}

	var fs *localfs.FS
	if cfg.Filesystem != nil {
		fs = localfs.New(cfg.Filesystem)
	} else {
		fs = localfs.NewOSFS()
	}

	uploader := upload.New(svc, fs, httpClient, cfg.Logger)
	downloader := download.New(svc, fs, httpClient)
	copier := copy.NewCopier(svc, httpClient)

	return &Client{
		cfg:        cfg,
		artifactID: artifactID,
		svc:        svc,
		httpClient: httpClient,
		fs:         fs,
		uploader:   uploader,
		downloader: downloader,
		copier:     copier,
		manager:    manager.New(uploader, downloader, copier, cfg.Logger),
		logger:     cfg.Logger,
	}, nil
}

// ArtifactID returns the artifact id in "workspace/alias" form.
func (c *Client) ArtifactID() string {
	return c.artifactID
}

// Service returns the artifact service used by the client.
//
//nolint:ireturn // services are pluggable through WithService.
func (c *Client) Service() artifacttypes.Service {
	return c.svc
}

// remote returns a scanner over the given artifact version
func (c *Client) remote(version string) *scanner.Remote {
	return scanner.NewRemote(c.svc, version)
}

// newHTTPClient builds the default HTTP client
func newHTTPClient(timeout time.Duration, disableSSL bool) *http.Client {
	client := &http.Client{Timeout: timeout}
	if disableSSL {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // explicitly requested
		client.Transport = transport
	}
	return client
}
