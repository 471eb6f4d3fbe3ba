package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	artifact "github.com/aicell-lab/hypha-artifact"
	"github.com/aicell-lab/hypha-artifact/artifacttypes"
)

// transferFunc is the signature shared by Put, Get and Copy
type transferFunc func(ctx context.Context, src, dst artifact.PathSpec, opts ...artifacttypes.TransferOption) error

// transferFlags are the flags shared by put, get and cp
type transferFlags struct {
	recursive    bool
	maxDepth     int
	ignoreErrors bool
	version      string
}

func (f *transferFlags) register(cmd *cobra.Command, withVersion bool) {
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "transfer directories recursively")
	cmd.Flags().IntVar(&f.maxDepth, "max-depth", 0, "limit recursion depth (0 is unlimited)")
	cmd.Flags().BoolVar(&f.ignoreErrors, "ignore-errors", false, "continue when a file fails")
	if withVersion {
		cmd.Flags().StringVar(&f.version, "version", "", "artifact version to read")
	}
}

func (f *transferFlags) options() []artifacttypes.TransferOption {
	opts := []artifacttypes.TransferOption{
		artifact.WithRecursive(f.recursive),
		artifact.WithMaxDepth(f.maxDepth),
		artifact.WithVersion(f.version),
	}
	if f.ignoreErrors {
		opts = append(opts, artifact.WithOnError(artifacttypes.ErrorIgnore))
	}
	return opts
}

// pathSpecs turns "src... dst" arguments into source and destination specs.
// Several sources go into the destination directory under their base names.
func pathSpecs(args []string) (artifact.PathSpec, artifact.PathSpec) {
	srcs, dst := args[:len(args)-1], args[len(args)-1]
	if len(srcs) == 1 {
		return artifact.Path(srcs[0]), artifact.Path(dst)
	}

	if !strings.HasSuffix(dst, "/") {
		dst += "/"
	}
	dsts := make([]string, len(srcs))
	for i := range dsts {
		dsts[i] = dst
	}
	return artifact.Paths(srcs...), artifact.Paths(dsts...)
}

// runTransfer runs a transfer with a progress bar on stderr
func (a *app) runTransfer(
	ctx context.Context,
	run transferFunc,
	args []string,
	opts ...artifacttypes.TransferOption,
) error {
	src, dst := pathSpecs(args)

	bar := newProgressBar(a.errOut, a.quiet)
	opts = append(opts, artifact.WithProgress(bar.Handle))
	err := run(ctx, src, dst, opts...)
	bar.Finish()
	if err != nil {
		return err
	}
	if failed := bar.Failed(); failed > 0 {
		return fmt.Errorf("%d files failed", failed)
	}
	return nil
}

func (a *app) lsCommand() *cobra.Command {
	var long bool
	var version string

	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory of the artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			result, err := a.client.Ls(cmd.Context(), dir, artifact.WithListVersion(version))
			if err != nil {
				return err
			}
			for _, entry := range result.Entries {
				a.printEntry(entry, long)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&long, "long", "l", false, "show sizes and modification times")
	cmd.Flags().StringVar(&version, "version", "", "artifact version to list")
	return cmd
}

func (a *app) printEntry(entry artifacttypes.Entry, long bool) {
	name := entry.Name
	if entry.IsDir() {
		name = a.styles.dir.Render(name + "/")
	}
	if !long {
		_, _ = fmt.Fprintln(a.out, name)
		return
	}

	size, modified := "-", "-"
	if !entry.IsDir() {
		size = formatSize(entry.Size)
	}
	if entry.LastModified != nil {
		modified = entry.LastModified.Local().Format("2006-01-02 15:04")
	}
	_, _ = fmt.Fprintf(a.out, "%-9s %12s  %s  %s\n",
		entry.Type, a.styles.dim.Render(size), a.styles.dim.Render(modified), name)
}

func (a *app) findCommand() *cobra.Command {
	var maxDepth int
	var withDirs bool

	cmd := &cobra.Command{
		Use:   "find [path]",
		Short: "List every file below a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := ""
			if len(args) == 1 {
				root = args[0]
			}
			result, err := a.client.Find(cmd.Context(), root, maxDepth, withDirs, artifact.WithDetail(false))
			if err != nil {
				return err
			}
			for _, p := range result.Paths {
				_, _ = fmt.Fprintln(a.out, p)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "limit recursion depth (0 is unlimited)")
	cmd.Flags().BoolVar(&withDirs, "dirs", false, "include directories")
	return cmd
}

func (a *app) catCommand() *cobra.Command {
	var flags transferFlags

	cmd := &cobra.Command{
		Use:   "cat path...",
		Short: "Print the content of artifact files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			contents, err := a.client.Cat(cmd.Context(), artifact.Paths(args...), flags.options()...)
			if err != nil {
				return err
			}
			paths := make([]string, 0, len(contents))
			for p := range contents {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				if _, err := a.out.Write(contents[p]); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (a *app) headCommand() *cobra.Command {
	var size int
	var version string

	cmd := &cobra.Command{
		Use:   "head path",
		Short: "Print the first bytes of an artifact file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := a.client.Head(cmd.Context(), args[0], size, artifact.WithVersion(version))
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}
	cmd.Flags().IntVarP(&size, "bytes", "c", 1024, "number of bytes to print")
	cmd.Flags().StringVar(&version, "version", "", "artifact version to read")
	return cmd
}

func (a *app) putCommand() *cobra.Command {
	var flags transferFlags
	var chunkSizeMiB int64
	var forceMultipart bool

	cmd := &cobra.Command{
		Use:   "put local... remote",
		Short: "Upload local files to the artifact",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.options()
			if cmd.Flags().Changed("chunk-size") || forceMultipart {
				multipart := artifacttypes.DefaultMultipartConfig()
				if chunkSizeMiB > 0 {
					multipart.ChunkSize = chunkSizeMiB * artifacttypes.MiB
				}
				multipart.ForceEnable = forceMultipart
				opts = append(opts, artifact.WithMultipart(multipart))
			}
			return a.runTransfer(cmd.Context(), a.client.Put, args, opts...)
		},
	}
	flags.register(cmd, false)
	cmd.Flags().Int64Var(&chunkSizeMiB, "chunk-size", artifacttypes.DefaultChunkSize/artifacttypes.MiB,
		"multipart chunk size in MiB (at least 5)")
	cmd.Flags().BoolVar(&forceMultipart, "multipart", false, "use multipart upload for files above one chunk")
	return cmd
}

func (a *app) getCommand() *cobra.Command {
	var flags transferFlags

	cmd := &cobra.Command{
		Use:   "get remote... local",
		Short: "Download artifact files",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTransfer(cmd.Context(), a.client.Get, args, flags.options()...)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (a *app) cpCommand() *cobra.Command {
	var flags transferFlags

	cmd := &cobra.Command{
		Use:   "cp remote... remote",
		Short: "Copy files within the artifact",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTransfer(cmd.Context(), a.client.Copy, args, flags.options()...)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func (a *app) rmCommand() *cobra.Command {
	var recursive bool
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "rm path...",
		Short: "Remove files from the artifact",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				if err := a.client.Remove(cmd.Context(), p, recursive, maxDepth); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "remove every file below a directory")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 0, "limit recursion depth (0 is unlimited)")
	return cmd
}

func (a *app) editCommand() *cobra.Command {
	var manifest, config string
	var req artifacttypes.EditRequest

	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Edit the artifact metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if manifest != "" {
				if err := json.Unmarshal([]byte(manifest), &req.Manifest); err != nil {
					return fmt.Errorf("parse --manifest: %w", err)
				}
			}
			if config != "" {
				if err := json.Unmarshal([]byte(config), &req.Config); err != nil {
					return fmt.Errorf("parse --config-json: %w", err)
				}
			}
			return a.client.Edit(cmd.Context(), req)
		},
	}
	cmd.Flags().StringVar(&manifest, "manifest", "", "manifest as a JSON object")
	cmd.Flags().StringVar(&config, "config-json", "", "artifact config as a JSON object")
	cmd.Flags().StringVar(&req.Type, "type", "", "artifact type")
	cmd.Flags().StringVar(&req.Version, "version", "", "version to edit")
	cmd.Flags().StringVar(&req.Comment, "comment", "", "comment for the edit")
	cmd.Flags().BoolVar(&req.Stage, "stage", false, "stage the edit until commit")
	return cmd
}

func (a *app) commitCommand() *cobra.Command {
	var version, comment string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit the staged artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Commit(cmd.Context(), version, comment); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.out, a.styles.success.Render("committed "+a.client.ArtifactID()))
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", "", "version name (default chosen by the server)")
	cmd.Flags().StringVar(&comment, "comment", "", "commit comment")
	return cmd
}

func (a *app) discardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Discard all staged changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Discard(cmd.Context()); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.out, a.styles.success.Render("discarded staged changes"))
			return nil
		},
	}
}
