// Package download handles artifact file download operations.
//
// Files are fetched whole through a presigned URL and written to the local
// filesystem, creating parent directories as needed.
package download
