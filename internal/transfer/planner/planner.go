package planner

import (
	"context"
	"path"
	"path/filepath"
	"strings"

	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/errors"
	"github.com/aicell-lab/hypha-artifact/internal/scanner"
)

// PathSpec is either a single path or an ordered list of paths.
type PathSpec struct {
	paths []string
	list  bool
}

// Single returns a spec for one path.
func Single(p string) PathSpec {
	return PathSpec{paths: []string{p}}
}

// List returns a spec for an ordered list of paths.
func List(paths ...string) PathSpec {
	return PathSpec{paths: append([]string(nil), paths...), list: true}
}

// IsZero reports whether the spec was left unset.
func (s PathSpec) IsZero() bool {
	return !s.list && len(s.paths) == 0
}

// IsList reports whether the spec is a list.
func (s PathSpec) IsList() bool {
	return s.list
}

// Paths returns the paths of the spec.
func (s PathSpec) Paths() []string {
	return append([]string(nil), s.paths...)
}

// Options control path expansion.
type Options struct {
	// Direction selects the path flavor of each side
	Direction artifacttypes.Direction

	// Recursive expands directories into their files
	Recursive bool

	// MaxDepth limits recursion; zero means unbounded
	MaxDepth int
}

// Planner expands path specifications into transfer pairs.
type Planner struct {
	source scanner.Scanner
}

// NewPlanner creates a new planner listing the source side with source.
func NewPlanner(source scanner.Scanner) *Planner {
	return &Planner{
		source: source,
	}
}

// Normalize checks that src and dst have the same shape and returns them as
// equal-length lists. An unset side defaults to the other one.
func Normalize(src, dst PathSpec) ([]string, []string, error) {
	switch {
	case dst.IsZero():
		dst = src
	case src.IsZero():
		src = dst
	}

	if src.list != dst.list {
		return nil, nil, errors.NewConfigError("plan", errors.ErrTypeMismatch)
	}
	if len(src.paths) != len(dst.paths) {
		return nil, nil, errors.NewConfigError("plan", errors.ErrLengthMismatch)
	}
	return src.Paths(), dst.Paths(), nil
}

// Build returns one pair per source file. Pair order follows the listing
// order of the source side; callers needing determinism must sort.
func (p *Planner) Build(
	ctx context.Context,
	src, dst PathSpec,
	opts Options,
) ([]artifacttypes.TransferPair, error) {
	sources, destinations, err := Normalize(src, dst)
	if err != nil {
		return nil, err
	}

	var pairs []artifacttypes.TransferPair
	for i, source := range sources {
		expanded, err := p.expand(ctx, source, destinations[i], opts)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, expanded...)
	}
	return pairs, nil
}

// expand resolves a single source and destination
func (p *Planner) expand(
	ctx context.Context,
	source, destination string,
	opts Options,
) ([]artifacttypes.TransferPair, error) {
	isDir, err := p.source.IsDir(ctx, source)
	if err != nil {
		return nil, err
	}

	if strings.HasSuffix(destination, "/") {
		destination = joinPath(opts.Direction != artifacttypes.DirectionGet, destination, baseName(source))
	}

	if !isDir {
		return []artifacttypes.TransferPair{{Source: source, Destination: destination}}, nil
	}
	if !opts.Recursive {
		return nil, errors.NewConfigError("plan", errors.ErrIsDirectory).WithPath(source)
	}

	files, err := p.source.ListFiles(ctx, source, opts.MaxDepth)
	if err != nil {
		return nil, err
	}

	localSource := opts.Direction == artifacttypes.DirectionPut
	remoteDestination := opts.Direction != artifacttypes.DirectionGet

	pairs := make([]artifacttypes.TransferPair, 0, len(files))
	for _, file := range files {
		rel, err := relativePath(localSource, source, file)
		if err != nil {
			return nil, errors.NewConfigError("plan", err).WithPath(file)
		}
		pairs = append(pairs, artifacttypes.TransferPair{
			Source:      file,
			Destination: joinPath(remoteDestination, destination, rel),
		})
	}
	return pairs, nil
}

// relativePath returns file relative to root, as a slash separated path
func relativePath(local bool, root, file string) (string, error) {
	if local {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return "", err
		}
		return filepath.ToSlash(rel), nil
	}

	cleanRoot := strings.Trim(path.Clean("/"+root), "/")
	cleanFile := strings.Trim(path.Clean("/"+file), "/")
	if cleanRoot == "" {
		return cleanFile, nil
	}
	return strings.TrimPrefix(cleanFile, cleanRoot+"/"), nil
}

// joinPath joins a destination root and a relative path in the flavor of the
// destination side
func joinPath(remote bool, root, rel string) string {
	if remote {
		if root == "" {
			return rel
		}
		return path.Join(root, rel)
	}
	return filepath.Join(root, filepath.FromSlash(rel))
}

// baseName returns the last element of a local or remote path
func baseName(p string) string {
	return path.Base(strings.TrimRight(filepath.ToSlash(p), "/"))
}
