package attendance

import (
	"context"
	"sync"
)

// MemoryStore is the fallback ledger store when no database is configured.
//
// A single mutex guards the map, so the check-then-insert in Insert is
// trivially atomic: concurrent scanners of one ticket serialize here and
// exactly one wins.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore constructs an empty in-memory ledger store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Insert records a check-in, failing if the ticket already has one.
func (s *MemoryStore) Insert(ctx context.Context, r Record) error {
	if r.TicketID == "" {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[r.TicketID]; ok {
		return ErrAlreadyCheckedIn
	}
	s.records[r.TicketID] = cloneRecord(r)
	return nil
}

// Get fetches the check-in record for a ticket.
func (s *MemoryStore) Get(ctx context.Context, ticketID string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[ticketID]
	if !ok {
		return Record{}, ErrNotFound
	}
	return cloneRecord(r), nil
}

// Delete removes the check-in record for a ticket, if any.
func (s *MemoryStore) Delete(ctx context.Context, ticketID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[ticketID]; !ok {
		return ErrNotFound
	}
	delete(s.records, ticketID)
	return nil
}

func cloneRecord(r Record) Record {
	if r.Members != nil {
		r.Members = append([]MemberAttendance(nil), r.Members...)
	}
	return r
}
