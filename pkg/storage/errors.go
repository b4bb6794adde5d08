package storage

import "errors"

// Sentinel errors for sink operations.
var (
	// ErrClosed is returned by Write after Close.
	ErrClosed = errors.New("sink closed")

	// ErrConflict is returned when a record with the same ID was already stored.
	ErrConflict = errors.New("call log already exists")

	// ErrNotFound is returned when a stored record does not exist.
	ErrNotFound = errors.New("call log not found")
)
