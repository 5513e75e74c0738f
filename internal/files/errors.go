package files

import "errors"

// Sentinel errors returned by the files service. Handlers map these to HTTP
// status codes; anything else is treated as an internal I/O failure.
var (
	// ErrInvalidPath indicates a client path that is malformed or escapes the root
	ErrInvalidPath = errors.New("invalid path")

	// ErrNotFound indicates the requested file or directory does not exist
	ErrNotFound = errors.New("not found")

	// ErrNotDirectory indicates expected a directory but got a file
	ErrNotDirectory = errors.New("not a directory")

	// ErrNotFile indicates expected a file but got a directory
	ErrNotFile = errors.New("not a file")

	// ErrConflict indicates the destination already exists
	ErrConflict = errors.New("already exists")

	// ErrInvalidName indicates illegal characters or segments in a new name
	ErrInvalidName = errors.New("invalid name")

	// ErrSizeLimitExceeded indicates an upload larger than the configured ceiling
	ErrSizeLimitExceeded = errors.New("size limit exceeded")

	// ErrCrossDevice indicates a move across filesystem volumes, which would
	// not be atomic and is therefore refused
	ErrCrossDevice = errors.New("cross-device move not supported")
)
