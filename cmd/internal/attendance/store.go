package attendance

import "context"

// Store is the persistence boundary for the attendance ledger.
//
// Insert must be atomic per ticket ID: of any number of concurrent inserts
// for the same ticket, exactly one succeeds and the rest fail with
// ErrAlreadyCheckedIn. Inserts for different tickets must not serialize
// against each other beyond what the storage engine requires.
type Store interface {
	Insert(ctx context.Context, r Record) error
	Get(ctx context.Context, ticketID string) (Record, error)
	Delete(ctx context.Context, ticketID string) error
}
