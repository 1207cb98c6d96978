package download

import (
	"errors"
	"fmt"
)

// Errors returned by the Manager to callers.
var (
	ErrDuplicateRequest = errors.New("download already queued or active")
	ErrInvalidRequest   = errors.New("invalid download request")
	ErrCancelled        = errors.New("download cancelled")
)

// HTTPStatusError is returned when the origin answers with a non-success status.
type HTTPStatusError struct {
	StatusCode int
	Status     string
}

func (e *HTTPStatusError) Error() string {
	if e.Status != "" {
		return "HTTP " + e.Status
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// TransportError wraps connection and body read failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// FilesystemError wraps failures creating, writing or renaming output files.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}

// errorKind names the taxonomy bucket of a worker error for logging.
func errorKind(err error) string {
	var statusErr *HTTPStatusError
	var transportErr *TransportError
	var fsErr *FilesystemError

	switch {
	case errors.Is(err, ErrCancelled):
		return "cancelled"
	case errors.As(err, &statusErr):
		return "http_status"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &fsErr):
		return "filesystem"
	default:
		return "unknown"
	}
}
