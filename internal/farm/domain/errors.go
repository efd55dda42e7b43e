package domain

import "errors"

var (
	// ErrNotFound covers both truly absent rows and rows outside the
	// caller's visibility; the two are indistinguishable on reads.
	ErrNotFound = errors.New("not_found")
	// ErrInvalidEvent rejects an event that would violate a quantity or
	// value invariant, e.g. selling more than remains.
	ErrInvalidEvent = errors.New("invalid_event")
	// ErrConflict is returned when the bounded retries for a
	// concurrent-append race are exhausted. Callers may retry.
	ErrConflict = errors.New("conflict")
	// ErrInvalidField rejects an update touching ledger-managed columns
	// or supplying an unknown column.
	ErrInvalidField = errors.New("invalid_field")
	// ErrInvalidActor is returned when no valid principal was supplied.
	ErrInvalidActor = errors.New("invalid_actor")
)
