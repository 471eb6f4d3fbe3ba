// Package operations contains the single-file transfer implementations.
// These move the bytes of exactly one file between the local filesystem and
// the artifact, or within the artifact, through presigned URLs.
//
// Each direction is isolated into its own subpackage.
package operations
