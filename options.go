package artifact

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
)

// WithServerURL sets the Hypha server URL, e.g. https://hypha.aicell.io.
func WithServerURL(serverURL string) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.ServerURL = serverURL
	}
}

// WithArtifactID sets the artifact alias, optionally prefixed with
// "workspace/".
func WithArtifactID(artifactID string) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.ArtifactID = artifactID
	}
}

// WithWorkspace sets the workspace owning the artifact.
// It must match the workspace prefix of the artifact id when both are given.
func WithWorkspace(workspace string) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.Workspace = workspace
	}
}

// WithToken sets the bearer token used for the artifact manager.
func WithToken(token string) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.Token = token
	}
}

// WithTimeout sets the timeout of individual HTTP requests.
// Default is 60 seconds. Ignored when a custom HTTP client is provided.
func WithTimeout(timeout time.Duration) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		if timeout > 0 {
			c.Timeout = timeout
		}
	}
}

// WithHTTPClient allows providing a custom HTTP client.
// This gives full control over HTTP behavior including timeouts, proxies, etc.
func WithHTTPClient(client *http.Client) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.HTTPClient = client
	}
}

// WithDisableSSL disables TLS certificate verification.
// Only use this for local testing.
func WithDisableSSL(disableSSL bool) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.DisableSSL = disableSSL
	}
}

// WithUseProxy asks the server for URLs routed through the Hypha proxy.
func WithUseProxy(useProxy bool) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.UseProxy = &useProxy
	}
}

// WithUseLocalURL asks the server for cluster-local URLs.
func WithUseLocalURL(useLocalURL bool) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.UseLocalURL = &useLocalURL
	}
}

// WithService replaces the artifact manager with a custom service, such as
// the s3backend package. Server URL and artifact id are not required then.
func WithService(svc artifacttypes.Service) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.Service = svc
	}
}

// WithFilesystem sets a custom filesystem for the local side of transfers.
// This allows using in-memory filesystems for testing.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithLogger sets the logger receiving diagnostics. Nil disables logging.
func WithLogger(logger *slog.Logger) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithChunkSize sets the multipart chunk size.
// Default is 6 MiB. Must be at least 5 MiB when multipart upload engages.
func WithChunkSize(chunkSize int64) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.Multipart.ChunkSize = chunkSize
	}
}

// WithThreshold sets the file size above which multipart upload engages.
// Default is 100 MiB.
func WithThreshold(threshold int64) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.Multipart.Threshold = threshold
	}
}

// WithMaxParallelParts sets the number of parts uploaded at once per file.
// Default is 4.
func WithMaxParallelParts(parts int) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		if parts > 0 {
			c.Multipart.MaxParallelParts = parts
		}
	}
}

// WithForceMultipart engages multipart upload for every file larger than one
// chunk, regardless of the threshold.
func WithForceMultipart(force bool) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		c.Multipart.ForceEnable = force
	}
}

// WithDownloadWeight sets the download weight recorded for files uploaded in
// parts. Default is 1.
func WithDownloadWeight(weight float64) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		if weight > 0 {
			c.Multipart.DownloadWeight = weight
		}
	}
}

// WithConcurrency sets the number of files transferred at once.
// Default is 4.
func WithConcurrency(concurrency int) artifacttypes.Option {
	return func(c *artifacttypes.ClientConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}

// WithRecursive expands source directories into their files.
func WithRecursive(recursive bool) artifacttypes.TransferOption {
	return func(c *artifacttypes.TransferConfig) {
		c.Recursive = recursive
	}
}

// WithMaxDepth limits recursion to the given number of directory levels.
// Zero means unbounded.
func WithMaxDepth(maxDepth int) artifacttypes.TransferOption {
	return func(c *artifacttypes.TransferConfig) {
		c.MaxDepth = maxDepth
	}
}

// WithVersion selects the artifact version read by the call, e.g. "stage".
// Default is the latest committed version.
func WithVersion(version string) artifacttypes.TransferOption {
	return func(c *artifacttypes.TransferConfig) {
		c.Version = version
	}
}

// WithProgress sets the callback receiving progress events.
// The callback is never invoked concurrently.
func WithProgress(progress artifacttypes.ProgressFunc) artifacttypes.TransferOption {
	return func(c *artifacttypes.TransferConfig) {
		c.Progress = progress
	}
}

// WithOnError sets the per-file error policy. Default is ErrorRaise.
func WithOnError(policy artifacttypes.ErrorPolicy) artifacttypes.TransferOption {
	return func(c *artifacttypes.TransferConfig) {
		c.OnError = policy
	}
}

// WithMultipart overrides the client multipart settings for one call.
func WithMultipart(cfg artifacttypes.MultipartConfig) artifacttypes.TransferOption {
	return func(c *artifacttypes.TransferConfig) {
		c.Multipart = &cfg
	}
}

// WithTransferConcurrency overrides the client concurrency for one call.
func WithTransferConcurrency(concurrency int) artifacttypes.TransferOption {
	return func(c *artifacttypes.TransferConfig) {
		if concurrency > 0 {
			c.Concurrency = concurrency
		}
	}
}
