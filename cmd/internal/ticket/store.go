package ticket

import "context"

// Store is the persistence boundary for the ticket registry.
//
// Implementations must treat TicketID as a unique key: Create fails with
// ErrDuplicateTicketID on conflict rather than overwriting, and List returns
// tickets in insertion order.
type Store interface {
	Create(ctx context.Context, t Ticket) error
	Get(ctx context.Context, ticketID string) (Ticket, error)
	Delete(ctx context.Context, ticketID string) error
	List(ctx context.Context) ([]Ticket, error)
}
