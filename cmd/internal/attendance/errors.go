package attendance

import "errors"

// Public, stable errors for callers.
var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrAlreadyCheckedIn is the losing side of the first-insert-wins race.
	// It is a normal outcome, not a storage failure; callers translate it to
	// a "used" answer carrying the winning record's timestamp.
	ErrAlreadyCheckedIn = errors.New("ticket already checked in")

	ErrNotFound = errors.New("attendance record not found")

	// ErrStorageUnavailable marks a transient store failure (e.g. timeout).
	// It is retryable and must never be read as "not checked in".
	ErrStorageUnavailable = errors.New("attendance storage unavailable")
)
