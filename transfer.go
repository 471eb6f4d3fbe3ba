package artifact

import (
	"context"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/internal/scanner"
	"github.com/aicell-lab/hypha-artifact/internal/transfer/manager"
	"github.com/aicell-lab/hypha-artifact/internal/transfer/planner"
)

// PathSpec is either a single path or an ordered list of paths.
type PathSpec = planner.PathSpec

// Path returns a spec for a single path. A path ending in "/" names a
// directory that receives the source under its base name.
func Path(p string) PathSpec {
	return planner.Single(p)
}

// Paths returns a spec for an ordered list of paths. Source and destination
// lists must have the same length.
func Paths(paths ...string) PathSpec {
	return planner.List(paths...)
}

// Put uploads local files to the artifact. An empty destination spec
// defaults to the source paths.
//
// Files larger than the multipart threshold are uploaded in parts. Transfers
// run concurrently; see WithOnError for how failures are handled.
func (c *Client) Put(ctx context.Context, src, dst PathSpec, opts ...artifacttypes.TransferOption) error {
	cfg := c.transferConfig(opts)
	return c.run(ctx, scanner.NewLocal(c.fs), src, dst, artifacttypes.DirectionPut, cfg)
}

// Get downloads artifact files to the local filesystem. An empty
// destination spec defaults to the source paths.
func (c *Client) Get(ctx context.Context, src, dst PathSpec, opts ...artifacttypes.TransferOption) error {
	cfg := c.transferConfig(opts)
	return c.run(ctx, c.remote(cfg.Version), src, dst, artifacttypes.DirectionGet, cfg)
}

// Copy copies files within the artifact.
func (c *Client) Copy(ctx context.Context, src, dst PathSpec, opts ...artifacttypes.TransferOption) error {
	cfg := c.transferConfig(opts)
	return c.run(ctx, c.remote(cfg.Version), src, dst, artifacttypes.DirectionCopy, cfg)
}

// PutFile uploads a single local file.
func (c *Client) PutFile(ctx context.Context, localPath, remotePath string, opts ...artifacttypes.TransferOption) error {
	return c.Put(ctx, Path(localPath), Path(remotePath), opts...)
}

// GetFile downloads a single artifact file.
func (c *Client) GetFile(ctx context.Context, remotePath, localPath string, opts ...artifacttypes.TransferOption) error {
	return c.Get(ctx, Path(remotePath), Path(localPath), opts...)
}

// run plans the pairs and hands them to the manager
func (c *Client) run(
	ctx context.Context,
	source scanner.Scanner,
	src, dst PathSpec,
	dir artifacttypes.Direction,
	cfg artifacttypes.TransferConfig,
) error {
	pairs, err := planner.NewPlanner(source).Build(ctx, src, dst, planner.Options{
		Direction: dir,
		Recursive: cfg.Recursive,
		MaxDepth:  cfg.MaxDepth,
	})
	if err != nil {
		return err
	}

	if c.logger != nil {
		c.logger.Debug("transfer planned", "operation", dir.String(), "files", len(pairs))
	}

	return c.manager.Run(ctx, pairs, dir, manager.Config{
		Multipart:   *cfg.Multipart,
		Concurrency: cfg.Concurrency,
		Version:     cfg.Version,
		OnError:     cfg.OnError,
	}, cfg.Progress)
}

// transferConfig applies per-call options over the client defaults
func (c *Client) transferConfig(opts []artifacttypes.TransferOption) artifacttypes.TransferConfig {
	cfg := artifacttypes.TransferConfig{
		OnError:     artifacttypes.ErrorRaise,
		Concurrency: c.cfg.Concurrency,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Multipart == nil {
		multipart := c.cfg.Multipart
		cfg.Multipart = &multipart
	}
	return cfg
}
