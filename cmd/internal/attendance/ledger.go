package attendance

import (
	"context"
	"crypto/rand"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const defaultStorageTimeout = 3 * time.Second

// Ledger enforces at-most-once admission per ticket.
type Ledger struct {
	store   Store
	timeout time.Duration
}

// Option configures the Ledger.
type Option func(*Ledger) error

// WithStorageTimeout bounds each store access. Timeouts surface as
// ErrStorageUnavailable so callers can retry; they are never interpreted as
// "not checked in".
func WithStorageTimeout(d time.Duration) Option {
	return func(l *Ledger) error {
		if d <= 0 {
			return ErrInvalidInput
		}
		l.timeout = d
		return nil
	}
}

// NewLedger constructs a Ledger over a store.
func NewLedger(store Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, ErrInvalidInput
	}
	l := &Ledger{store: store, timeout: defaultStorageTimeout}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// CheckInInput describes a check-in write.
type CheckInInput struct {
	TicketID  string
	ScannedBy string
	Members   []MemberAttendance
	Now       time.Time
}

// RecordCheckIn writes the one-and-only attendance record for a ticket.
//
// The check-then-write is delegated to the store's atomic insert: the losing
// side of a concurrent scan gets ErrAlreadyCheckedIn and should read the
// winning record. Once this returns nil the record is durably committed.
func (l *Ledger) RecordCheckIn(ctx context.Context, in CheckInInput) (Record, error) {
	if l == nil || l.store == nil {
		return Record{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	ticketID := strings.TrimSpace(in.TicketID)
	if ticketID == "" {
		return Record{}, ErrInvalidInput
	}
	scannedBy := strings.TrimSpace(in.ScannedBy)
	if scannedBy == "" {
		scannedBy = "scanner"
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	for _, m := range in.Members {
		if m.Status != StatusPresent && m.Status != StatusAbsent {
			return Record{}, ErrInvalidInput
		}
	}

	id, err := newULID(now)
	if err != nil {
		return Record{}, err
	}

	r := Record{
		ID:        id,
		TicketID:  ticketID,
		Timestamp: now,
		Status:    StatusPresent,
		ScannedBy: scannedBy,
		Members:   in.Members,
	}
	if err := l.withTimeout(ctx, func(ctx context.Context) error {
		return l.store.Insert(ctx, r)
	}); err != nil {
		return Record{}, err
	}
	return r, nil
}

// IsCheckedIn reports whether a ticket already has an attendance record.
func (l *Ledger) IsCheckedIn(ctx context.Context, ticketID string) (bool, error) {
	_, err := l.Get(ctx, ticketID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// Get fetches a ticket's attendance record.
func (l *Ledger) Get(ctx context.Context, ticketID string) (Record, error) {
	if l == nil || l.store == nil {
		return Record{}, ErrInvalidInput
	}
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return Record{}, ErrInvalidInput
	}

	var r Record
	err := l.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		r, err = l.store.Get(ctx, ticketID)
		return err
	})
	if err != nil {
		return Record{}, err
	}
	return r, nil
}

// DeleteByTicket removes a ticket's attendance record. Satisfies the
// registry's cascade contract: deleting a never-scanned ticket is a no-op.
func (l *Ledger) DeleteByTicket(ctx context.Context, ticketID string) error {
	if l == nil || l.store == nil {
		return ErrInvalidInput
	}
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return ErrInvalidInput
	}

	err := l.withTimeout(ctx, func(ctx context.Context) error {
		return l.store.Delete(ctx, ticketID)
	})
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

func (l *Ledger) withTimeout(parent context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, l.timeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return ErrStorageUnavailable
	}
	return err
}

func newULID(now time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
