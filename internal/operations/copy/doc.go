// Package copy handles copies between two paths of the same artifact.
//
// The service has no server-side copy, so the source is read through its
// download URL and written whole through an upload URL.
package copy
