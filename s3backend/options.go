package s3backend

import (
	"log/slog"
	"time"
)

// DefaultPresignExpiry is how long presigned URLs stay valid.
const DefaultPresignExpiry = 15 * time.Minute

// Config holds the configuration of a Backend.
type Config struct {
	// Prefix is the key prefix the artifact lives under, without slashes
	Prefix string

	// PresignExpiry is the lifetime of presigned URLs
	PresignExpiry time.Duration

	// Region overrides the region of the loaded AWS configuration
	Region string

	// Endpoint overrides the S3 endpoint, e.g. for LocalStack or MinIO
	Endpoint string

	// UsePathStyle forces path-style bucket addressing
	UsePathStyle bool

	// Logger receives debug logs; nil disables logging
	Logger *slog.Logger
}

// Option configures a Backend.
type Option func(*Config)

// WithPrefix places the artifact under the given key prefix.
func WithPrefix(prefix string) Option {
	return func(c *Config) {
		c.Prefix = prefix
	}
}

// WithPresignExpiry sets the lifetime of presigned URLs.
func WithPresignExpiry(d time.Duration) Option {
	return func(c *Config) {
		c.PresignExpiry = d
	}
}

// WithRegion sets the AWS region. Only used by NewFromConfig.
func WithRegion(region string) Option {
	return func(c *Config) {
		c.Region = region
	}
}

// WithEndpoint sets a custom S3 endpoint. Only used by NewFromConfig.
func WithEndpoint(endpoint string) Option {
	return func(c *Config) {
		c.Endpoint = endpoint
	}
}

// WithPathStyle enables path-style addressing. Only used by NewFromConfig.
func WithPathStyle(enabled bool) Option {
	return func(c *Config) {
		c.UsePathStyle = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}
