package ticket

import (
	"context"
	"sync"
)

// MemoryStore is the fallback registry store when no database is configured.
// It keeps insertion order so List matches the Postgres store's ordering.
type MemoryStore struct {
	mu      sync.RWMutex
	tickets map[string]Ticket
	order   []string
}

// NewMemoryStore constructs an empty in-memory registry store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tickets: make(map[string]Ticket)}
}

// Create inserts a ticket, failing on a duplicate ID.
func (s *MemoryStore) Create(ctx context.Context, t Ticket) error {
	if t.TicketID == "" {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[t.TicketID]; ok {
		return ErrDuplicateTicketID
	}
	s.tickets[t.TicketID] = cloneTicket(t)
	s.order = append(s.order, t.TicketID)
	return nil
}

// Get fetches a ticket by exact ID.
func (s *MemoryStore) Get(ctx context.Context, ticketID string) (Ticket, error) {
	if err := ctx.Err(); err != nil {
		return Ticket{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tickets[ticketID]
	if !ok {
		return Ticket{}, ErrNotFound
	}
	return cloneTicket(t), nil
}

// Delete removes a ticket by ID.
func (s *MemoryStore) Delete(ctx context.Context, ticketID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tickets[ticketID]; !ok {
		return ErrNotFound
	}
	delete(s.tickets, ticketID)
	for i, id := range s.order {
		if id == ticketID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// List returns all tickets in insertion order.
func (s *MemoryStore) List(ctx context.Context) ([]Ticket, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Ticket, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, cloneTicket(s.tickets[id]))
	}
	return out, nil
}

// cloneTicket copies the member slice so callers cannot mutate stored state.
func cloneTicket(t Ticket) Ticket {
	if t.Members != nil {
		t.Members = append([]Member(nil), t.Members...)
	}
	return t
}
