package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	artifact "github.com/aicell-lab/hypha-artifact"
	"github.com/aicell-lab/hypha-artifact/artifacttypes"
	"github.com/aicell-lab/hypha-artifact/s3backend"
)

// app carries the state shared by all subcommands.
type app struct {
	v       *viper.Viper
	cfgFile string
	quiet   bool
	out     io.Writer
	errOut  io.Writer
	styles  styles

	cfg    *Config
	logger *slog.Logger
	client *artifact.Client
}

// NewRootCommand builds the hypha-artifact command tree writing to out
// and errOut.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{
		v:      newViper(),
		out:    out,
		errOut: errOut,
		styles: newStyles(out),
	}

	root := &cobra.Command{
		Use:   "hypha-artifact",
		Short: "Transfer files to and from Hypha artifacts",
		Long: `hypha-artifact lists, reads and transfers the files of a Hypha artifact.

Settings are read from flags, HYPHA_* environment variables (for example
HYPHA_SERVER_URL, HYPHA_TOKEN, HYPHA_WORKSPACE, HYPHA_ARTIFACT) and the
optional config file $HOME/.hypha-artifact.yaml.

Examples:
  hypha-artifact ls data/
  hypha-artifact put -r ./results results/
  hypha-artifact get data/model.bin ./model.bin
  hypha-artifact commit --comment "new results"`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context())
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default $HOME/.hypha-artifact.yaml)")
	flags.BoolVarP(&a.quiet, "quiet", "q", false, "disable progress output")
	flags.String(keyServerURL, "", "Hypha server URL")
	flags.String(keyToken, "", "authentication token")
	flags.String(keyWorkspace, "", "workspace of the artifact")
	flags.StringP(keyArtifact, "a", "", `artifact id, "alias" or "workspace/alias"`)
	flags.Bool(keyDisableSSL, false, "skip TLS certificate verification")
	flags.Int(keyConcurrency, artifacttypes.DefaultConcurrency, "files transferred concurrently")
	flags.String(keyLogLevel, "warn", "log level (debug, info, warn, error)")
	flags.String(keyS3Bucket, "", "serve the artifact from this S3 bucket instead of a Hypha server")
	flags.String(keyS3Prefix, "", "key prefix of the artifact inside the S3 bucket")
	flags.String(keyS3Endpoint, "", "custom S3 endpoint URL")
	flags.String(keyS3Region, "", "S3 region")
	flags.Bool(keyS3PathStyle, false, "use path-style S3 addressing")
	_ = a.v.BindPFlags(flags)

	root.AddCommand(
		a.lsCommand(),
		a.findCommand(),
		a.catCommand(),
		a.headCommand(),
		a.putCommand(),
		a.getCommand(),
		a.cpCommand(),
		a.rmCommand(),
		a.editCommand(),
		a.commitCommand(),
		a.discardCommand(),
	)
	return root
}

// setup loads the configuration and creates the client
func (a *app) setup(ctx context.Context) error {
	if err := readConfigFile(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := loadConfig(a.v)
	if err != nil {
		return err
	}
	level, _ := parseLevel(cfg.LogLevel)

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))

	client, err := a.newClient(ctx)
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

// newClient creates a client for a Hypha server or an S3 bucket
func (a *app) newClient(ctx context.Context) (*artifact.Client, error) {
	opts := []artifacttypes.Option{
		artifact.WithLogger(a.logger),
		artifact.WithArtifactID(a.cfg.Artifact),
	}
	if a.cfg.Concurrency > 0 {
		opts = append(opts, artifact.WithConcurrency(a.cfg.Concurrency))
	}

	if a.cfg.S3Bucket != "" {
		backend, err := s3backend.NewFromConfig(ctx, a.cfg.S3Bucket,
			s3backend.WithPrefix(a.cfg.S3Prefix),
			s3backend.WithEndpoint(a.cfg.S3Endpoint),
			s3backend.WithRegion(a.cfg.S3Region),
			s3backend.WithPathStyle(a.cfg.S3PathStyle),
			s3backend.WithLogger(a.logger),
		)
		if err != nil {
			return nil, err
		}
		return artifact.New(append(opts, artifact.WithService(backend))...)
	}

	return artifact.New(append(opts,
		artifact.WithServerURL(a.cfg.ServerURL),
		artifact.WithWorkspace(a.cfg.Workspace),
		artifact.WithToken(a.cfg.Token),
		artifact.WithDisableSSL(a.cfg.DisableSSL),
	)...)
}

// Execute runs the command line tool and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCommand(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		st := newStyles(os.Stderr)
		_, _ = fmt.Fprintf(os.Stderr, "%s %v\n", st.failure.Render("error:"), err)
		return 1
	}
	return 0
}
