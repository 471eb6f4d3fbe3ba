// Package upload handles artifact file upload operations.
// This includes simple whole-file uploads and multipart uploads.
//
// The package detects when to use multipart upload based on the file size
// and the multipart configuration.
package upload
