package core

import (
	"errors"
	"io/fs"
)

var (
	// ErrNotFound is returned when no object exists at a key.
	// Re-exported from io/fs so that errors.Is(err, fs.ErrNotExist) also holds.
	ErrNotFound = fs.ErrNotExist

	// ErrExist is returned when a write refuses to overwrite an existing object.
	ErrExist = fs.ErrExist

	// ErrPermission is returned when the backend denies access to a key.
	ErrPermission = fs.ErrPermission

	// ErrClosed is returned when a stream is used after Close.
	ErrClosed = fs.ErrClosed

	// ErrInvalid is returned when a stream is used in a mode it was not
	// opened with.
	ErrInvalid = fs.ErrInvalid

	// ErrUnsupported is returned when an operation is not supported by the
	// backend, for example an unsupported stream flag or a missing capability.
	ErrUnsupported = errors.New("operation not supported")
)

// IsNotFound reports whether err signals a missing object.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
