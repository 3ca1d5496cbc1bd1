package store

import "errors"

var (
	ErrConflict = errors.New("conflict")
	ErrNotFound = errors.New("not found")

	// ErrTimeout marks a storage operation that hit its deadline. Read-only
	// operations are safe to retry; the booking insert is not, without
	// re-checking booking status first.
	ErrTimeout = errors.New("storage timeout")
)
