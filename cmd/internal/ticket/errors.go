package ticket

import "errors"

// Public, stable errors for callers.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("ticket not found")
	ErrDuplicateTicketID  = errors.New("ticket id already exists")
	ErrStorageUnavailable = errors.New("ticket storage unavailable")
)
