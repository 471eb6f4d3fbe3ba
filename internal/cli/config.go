package cli

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Configuration keys, also the names of the global flags
const (
	keyServerURL   = "server-url"
	keyToken       = "token"
	keyWorkspace   = "workspace"
	keyArtifact    = "artifact"
	keyDisableSSL  = "disable-ssl"
	keyConcurrency = "concurrency"
	keyLogLevel    = "log-level"
	keyS3Bucket    = "s3-bucket"
	keyS3Prefix    = "s3-prefix"
	keyS3Endpoint  = "s3-endpoint"
	keyS3Region    = "s3-region"
	keyS3PathStyle = "s3-path-style"
)

// envPrefix prefixes every environment variable, e.g. HYPHA_SERVER_URL.
const envPrefix = "HYPHA"

// Config holds the global settings of the command line tool.
type Config struct {
	ServerURL   string
	Token       string
	Workspace   string
	Artifact    string
	DisableSSL  bool
	Concurrency int
	LogLevel    string

	// S3Bucket selects the S3 backend instead of a Hypha server
	S3Bucket    string
	S3Prefix    string
	S3Endpoint  string
	S3Region    string
	S3PathStyle bool
}

// newViper returns a viper instance reading HYPHA_* environment variables.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(keyLogLevel, "warn")
	return v
}

// readConfigFile merges a config file into v. An explicit path must exist;
// the default $HOME/.hypha-artifact.yaml is optional.
func readConfigFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".hypha-artifact")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && stderrors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	return nil
}

// loadConfig builds a Config from v.
func loadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerURL:   v.GetString(keyServerURL),
		Token:       v.GetString(keyToken),
		Workspace:   v.GetString(keyWorkspace),
		Artifact:    v.GetString(keyArtifact),
		DisableSSL:  v.GetBool(keyDisableSSL),
		Concurrency: v.GetInt(keyConcurrency),
		LogLevel:    v.GetString(keyLogLevel),
		S3Bucket:    v.GetString(keyS3Bucket),
		S3Prefix:    v.GetString(keyS3Prefix),
		S3Endpoint:  v.GetString(keyS3Endpoint),
		S3Region:    v.GetString(keyS3Region),
		S3PathStyle: v.GetBool(keyS3PathStyle),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that an artifact can be addressed with the settings.
func (c *Config) Validate() error {
	if c.S3Bucket == "" {
		if c.ServerURL == "" {
			return fmt.Errorf("server URL is required (--%s or %s_SERVER_URL)", keyServerURL, envPrefix)
		}
		if c.Artifact == "" {
			return fmt.Errorf("artifact is required (--%s or %s_ARTIFACT)", keyArtifact, envPrefix)
		}
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// parseLevel maps a level name onto a slog level.
func parseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}
