// Package errors provides error types and handling for artifact transfer operations.
package errors

import (
	"errors"
	"fmt"
)

// Error represents an artifact operation error with context about the operation that failed.
type Error struct {
	// Op is the operation that failed (e.g., "put", "get", "startMultipart")
	Op string

	// Path is the local or remote path involved (if applicable)
	Path string

	// Kind classifies the failure
	Kind Kind

	// Status is the HTTP status code for transport failures, zero otherwise
	Status int

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	var status string
	if e.Status != 0 {
		status = fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Path != "" {
		return fmt.Sprintf("artifact.%s %s%s: %v", e.Op, e.Path, status, e.Err)
	}
	return fmt.Sprintf("artifact.%s%s: %v", e.Op, status, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel matching this error's kind, so that
// errors.Is(err, ErrTransport) holds for any transport failure.
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindNotFound:
		return target == ErrNotFound
	case KindTransport:
		return target == ErrTransport
	case KindProtocol:
		return target == ErrProtocol
	case KindConfiguration:
		return target == ErrInvalidConfig
	}
	return false
}

// WithPath adds path context to an existing error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation, kind and underlying error.
func NewError(op string, kind Kind, err error) *Error {
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(op string, err error) *Error {
	return NewError(op, KindConfiguration, err)
}

// NewTransportError creates a transport error for a failed HTTP exchange.
// A 404 status is classified as KindNotFound.
func NewTransportError(op string, status int, err error) *Error {
	kind := KindTransport
	if status == 404 {
		kind = KindNotFound
	}
	return &Error{
		Op:     op,
		Kind:   kind,
		Status: status,
		Err:    err,
	}
}

// NewProtocolError creates an error for a malformed service response.
func NewProtocolError(op string, err error) *Error {
	return NewError(op, KindProtocol, err)
}

// Sentinel errors for common artifact operation failures.
// These can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfig indicates invalid arguments or configuration
	ErrInvalidConfig = errors.New("artifact: invalid configuration")

	// ErrLengthMismatch indicates source and destination lists differ in length
	ErrLengthMismatch = errors.New("artifact: source and destination lists must have the same length")

	// ErrTypeMismatch indicates one side is a list and the other a single path
	ErrTypeMismatch = errors.New("artifact: source and destination must both be paths or both be lists")

	// ErrIsDirectory indicates a directory was given without recursive mode
	ErrIsDirectory = errors.New("artifact: path is a directory, use recursive mode")

	// ErrChunkTooSmall indicates a multipart chunk size below the minimum
	ErrChunkTooSmall = errors.New("artifact: chunk size must be at least 5 MiB")

	// ErrNotFound indicates that the requested file does not exist
	ErrNotFound = errors.New("artifact: not found")

	// ErrTransport indicates a failed HTTP request
	ErrTransport = errors.New("artifact: transport failure")

	// ErrProtocol indicates an unexpected response from the artifact service
	ErrProtocol = errors.New("artifact: protocol violation")

	// ErrWorkspaceMismatch indicates conflicting workspace values
	ErrWorkspaceMismatch = errors.New("artifact: workspace mismatch")

	// ErrUnsupported indicates an operation the backend cannot perform
	ErrUnsupported = errors.New("artifact: operation not supported")
)

// IsConfiguration checks if an error was caused by invalid configuration or arguments.
func IsConfiguration(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindConfiguration
	}
	return errors.Is(err, ErrInvalidConfig)
}

// IsNotFound checks if an error indicates that a file was not found.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport checks if an error is a transport failure, including not-found statuses.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport) || IsNotFound(err)
}

// IsProtocol checks if an error indicates a malformed service response.
func IsProtocol(err error) bool {
	return errors.Is(err, ErrProtocol)
}

// StatusCode returns the HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
