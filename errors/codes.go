package errors

// Kind classifies an error by where it originated.
// Kinds are string-based for debuggability and natural JSON serialization.
type Kind string

const (
	// Validation errors.

	// KindConfiguration covers invalid arguments detected before any network I/O.
	KindConfiguration Kind = "INVALID_CONFIGURATION"

	// Resource errors.

	// KindNotFound indicates the requested file or directory does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// Infrastructure errors.

	// KindTransport covers failed HTTP requests and non-success statuses.
	KindTransport Kind = "NETWORK_ERROR"

	// KindProtocol indicates the artifact service returned a malformed response.
	KindProtocol Kind = "PROTOCOL_ERROR"
)
