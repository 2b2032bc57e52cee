package ticket

import (
	"context"
	"errors"
	"strings"
	"time"

	"gatepass/cmd/security/payload"
)

const defaultStorageTimeout = 3 * time.Second

// AttendanceCascade removes attendance state owned by another package.
// The registry never reads attendance; it only cascades deletes by ticket ID.
// DeleteByTicket must be a no-op (nil error) when no record exists: a ticket
// that was never scanned has nothing to cascade.
type AttendanceCascade interface {
	DeleteByTicket(ctx context.Context, ticketID string) error
}

// Registry is the source of truth for issued tickets.
type Registry struct {
	store   Store
	codec   *payload.Codec
	cascade AttendanceCascade
	timeout time.Duration
}

// Option configures the Registry.
type Option func(*Registry) error

// WithStorageTimeout bounds each store access. Timeouts surface as
// ErrStorageUnavailable, never as a missing ticket.
func WithStorageTimeout(d time.Duration) Option {
	return func(r *Registry) error {
		if d <= 0 {
			return ErrInvalidInput
		}
		r.timeout = d
		return nil
	}
}

// WithAttendanceCascade wires the ledger-side delete used by Delete.
func WithAttendanceCascade(c AttendanceCascade) Option {
	return func(r *Registry) error {
		r.cascade = c
		return nil
	}
}

// NewRegistry constructs a Registry over a store and an envelope codec.
func NewRegistry(store Store, codec *payload.Codec, opts ...Option) (*Registry, error) {
	if store == nil || codec == nil {
		return nil, ErrInvalidInput
	}
	r := &Registry{store: store, codec: codec, timeout: defaultStorageTimeout}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// IssueInput describes ticket creation.
type IssueInput struct {
	TeamName        string
	CollegeName     string
	TeamLeaderEmail string
	Slot            string
	EventName       string
	Members         []Member
	CreatedBy       string
	Now             time.Time
}

// Issue mints identifiers, seals the QR envelope, and persists the ticket.
// An ID collision is not silently overwritten; it comes back as
// ErrDuplicateTicketID so it can be reported and retried.
func (r *Registry) Issue(ctx context.Context, in IssueInput) (Ticket, error) {
	if r == nil || r.store == nil {
		return Ticket{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Ticket{}, err
	}

	teamName := strings.TrimSpace(in.TeamName)
	if teamName == "" {
		return Ticket{}, ErrInvalidInput
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	createdBy := strings.TrimSpace(in.CreatedBy)
	if createdBy == "" {
		createdBy = "admin"
	}

	ticketID, err := NewTicketID()
	if err != nil {
		return Ticket{}, err
	}
	userID, err := NewUserID()
	if err != nil {
		return Ticket{}, err
	}

	envelope, err := r.codec.Encode(payload.Claims{
		TicketID: ticketID,
		UserID:   userID,
		TeamName: teamName,
		IssuedAt: now.Unix(),
	})
	if err != nil {
		return Ticket{}, err
	}

	teamSize := len(in.Members)
	if teamSize == 0 {
		teamSize = 1
	}

	t := Ticket{
		TicketID:        ticketID,
		UserID:          userID,
		TeamName:        teamName,
		CollegeName:     strings.TrimSpace(in.CollegeName),
		TeamLeaderEmail: strings.TrimSpace(in.TeamLeaderEmail),
		TeamSize:        teamSize,
		Slot:            strings.TrimSpace(in.Slot),
		EventName:       strings.TrimSpace(in.EventName),
		Members:         in.Members,
		QRPayload:       envelope,
		IssuedAt:        now,
		CreatedAt:       now,
		CreatedBy:       createdBy,
	}

	if err := r.withTimeout(ctx, func(ctx context.Context) error {
		return r.store.Create(ctx, t)
	}); err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// Lookup fetches a ticket by exact ID. No fuzzy or partial matching.
func (r *Registry) Lookup(ctx context.Context, ticketID string) (Ticket, error) {
	if r == nil || r.store == nil {
		return Ticket{}, ErrInvalidInput
	}
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return Ticket{}, ErrInvalidInput
	}

	var t Ticket
	err := r.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		t, err = r.store.Get(ctx, ticketID)
		return err
	})
	if err != nil {
		return Ticket{}, err
	}
	return t, nil
}

// Delete removes a ticket and cascades to its attendance record, if any.
func (r *Registry) Delete(ctx context.Context, ticketID string) error {
	if r == nil || r.store == nil {
		return ErrInvalidInput
	}
	ticketID = strings.TrimSpace(ticketID)
	if ticketID == "" {
		return ErrInvalidInput
	}

	if err := r.withTimeout(ctx, func(ctx context.Context) error {
		return r.store.Delete(ctx, ticketID)
	}); err != nil {
		return err
	}

	if r.cascade != nil {
		if err := r.cascade.DeleteByTicket(ctx, ticketID); err != nil {
			return err
		}
	}
	return nil
}

// ListAll returns every ticket in creation order.
func (r *Registry) ListAll(ctx context.Context) ([]Ticket, error) {
	if r == nil || r.store == nil {
		return nil, ErrInvalidInput
	}

	var out []Ticket
	err := r.withTimeout(ctx, func(ctx context.Context) error {
		var err error
		out, err = r.store.List(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Registry) withTimeout(parent context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	err := fn(ctx)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
		return ErrStorageUnavailable
	}
	return err
}
