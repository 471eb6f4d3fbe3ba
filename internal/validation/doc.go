// Package validation provides centralized input validation logic.
// This includes multipart configuration checks, artifact identifier parsing
// and remote path checks.
//
// All inputs are validated before any request is sent so that configuration
// errors never leave partial state on the server.
package validation
