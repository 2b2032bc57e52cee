package verify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"gatepass/cmd/internal/attendance"
	"gatepass/cmd/internal/ticket"
	"gatepass/cmd/security/payload"
)

// External-facing reasons. Deliberately generic: which decode stage failed is
// logged, never returned.
const (
	reasonBadCode       = "invalid or tampered code"
	reasonNotFound      = "ticket not found"
	reasonMismatch      = "ticket data mismatch"
	reasonUsed          = "ticket already used for entry"
	reasonTeamRoster    = "team ticket: select present members"
	reasonEntryAllowed  = "entry allowed"
	reasonUnknownMember = "unknown member selection"
)

const retryBackoff = 150 * time.Millisecond

// TicketRegistry is the registry surface the orchestrator needs.
type TicketRegistry interface {
	Lookup(ctx context.Context, ticketID string) (ticket.Ticket, error)
}

// AttendanceLedger is the ledger surface the orchestrator needs.
type AttendanceLedger interface {
	Get(ctx context.Context, ticketID string) (attendance.Record, error)
	RecordCheckIn(ctx context.Context, in attendance.CheckInInput) (attendance.Record, error)
}

// Service drives the scan state machine:
// decode, registry lookup, identity cross-check, used check, then either a
// direct check-in (single member) or a suspended two-phase team decision.
type Service struct {
	log      *slog.Logger
	codec    *payload.Codec
	registry TicketRegistry
	ledger   AttendanceLedger
	announce Announcer
	metrics  Metrics
}

// Option configures the Service.
type Option func(*Service)

// WithAnnouncer wires the live check-in feed.
func WithAnnouncer(a Announcer) Option {
	return func(s *Service) {
		if a != nil {
			s.announce = a
		}
	}
}

// WithMetrics wires decision counters.
func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewService constructs the orchestrator.
func NewService(log *slog.Logger, codec *payload.Codec, registry TicketRegistry, ledger AttendanceLedger, opts ...Option) (*Service, error) {
	if codec == nil || registry == nil || ledger == nil {
		return nil, errors.New("verify: nil dependency")
	}
	if log == nil {
		log = slog.Default()
	}
	s := &Service{
		log:      log,
		codec:    codec,
		registry: registry,
		ledger:   ledger,
		announce: noopAnnouncer{},
		metrics:  noopMetrics{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Verify decides the outcome for a raw scanned string.
//
// Returns an error only for storage failures that survived one retry; every
// decode or lookup rejection is a Result, not an error.
func (s *Service) Verify(ctx context.Context, rawScan, operator string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	rawScan = strings.TrimSpace(rawScan)
	if rawScan == "" {
		return s.invalid("scan.empty", nil), nil
	}

	claims, err := s.codec.Decode(rawScan)
	if err != nil {
		if payload.IsDecodeError(err) {
			return s.invalid("scan.decode.fail", err), nil
		}
		return Result{}, err
	}

	return s.admit(ctx, claims.TicketID, &claims.UserID, operator)
}

// ManualCheckIn is the trusted-operator escape hatch: it enters the state
// machine at the registry lookup, skipping payload verification. It must only
// be reachable behind operator authentication.
func (s *Service) ManualCheckIn(ctx context.Context, ticketID, operator string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ticketID = strings.ToUpper(strings.TrimSpace(ticketID))
	if ticketID == "" {
		return s.invalid("manual.empty", nil), nil
	}
	return s.admit(ctx, ticketID, nil, operator)
}

// admit runs steps 2..6 of the scan decision. claimedUserID is nil on the
// manual path, which has no payload to cross-check.
func (s *Service) admit(ctx context.Context, ticketID string, claimedUserID *string, operator string) (Result, error) {
	t, res, err := s.lookupTicket(ctx, ticketID)
	if err != nil || res != nil {
		if res != nil {
			return *res, nil
		}
		return Result{}, err
	}

	if claimedUserID != nil && *claimedUserID != t.UserID {
		s.log.Warn("scan.identity.mismatch", "ticket_id", t.TicketID)
		return s.invalidReason(reasonMismatch), nil
	}

	if res, err := s.replayIfUsed(ctx, t); err != nil || res != nil {
		if res != nil {
			return *res, nil
		}
		return Result{}, err
	}

	if len(t.Members) > 1 {
		// Suspend the decision: nothing is written until the operator
		// commits a member selection through RecordTeamAttendance.
		s.metrics.ObserveScan(StatusTeamAttendance)
		roster := append([]ticket.Member(nil), t.Members...)
		return Result{
			Status: StatusTeamAttendance,
			Reason: reasonTeamRoster,
			Ticket: &t,
			Roster: roster,
		}, nil
	}

	return s.commitCheckIn(ctx, t, nil, operator)
}

// RecordTeamAttendance is phase two of the team flow. It re-verifies the
// ledger before writing: another scan of the same ticket may have completed
// since phase one handed out the roster.
func (s *Service) RecordTeamAttendance(ctx context.Context, ticketID string, presentMemberIDs []string, operator string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	t, res, err := s.lookupTicket(ctx, strings.TrimSpace(ticketID))
	if err != nil || res != nil {
		if res != nil {
			return *res, nil
		}
		return Result{}, err
	}

	present := make(map[string]bool, len(presentMemberIDs))
	for _, id := range presentMemberIDs {
		present[id] = true
	}
	roster := make([]attendance.MemberAttendance, 0, len(t.Members))
	for _, m := range t.Members {
		status := attendance.StatusAbsent
		if present[m.MemberID] {
			status = attendance.StatusPresent
			delete(present, m.MemberID)
		}
		roster = append(roster, attendance.MemberAttendance{
			MemberID: m.MemberID,
			Name:     m.Name,
			Position: m.Position,
			Status:   status,
		})
	}
	if len(present) != 0 {
		return s.invalidReason(reasonUnknownMember), nil
	}

	// Re-check before writing; the atomic insert below still catches any
	// race that slips between this read and the write.
	if res, err := s.replayIfUsed(ctx, t); err != nil || res != nil {
		if res != nil {
			return *res, nil
		}
		return Result{}, err
	}

	return s.commitCheckIn(ctx, t, roster, operator)
}

// CheckStatus is the read-only pre-check used by operator UIs. It never
// writes attendance.
func (s *Service) CheckStatus(ctx context.Context, ticketID string) (exists bool, t ticket.Ticket, record *attendance.Record, err error) {
	ticketID = strings.ToUpper(strings.TrimSpace(ticketID))
	if ticketID == "" {
		return false, ticket.Ticket{}, nil, nil
	}

	err = s.retryStorage(ctx, func() error {
		var lerr error
		t, lerr = s.registry.Lookup(ctx, ticketID)
		return lerr
	})
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			return false, ticket.Ticket{}, nil, nil
		}
		return false, ticket.Ticket{}, nil, err
	}

	var r attendance.Record
	err = s.retryStorage(ctx, func() error {
		var gerr error
		r, gerr = s.ledger.Get(ctx, ticketID)
		return gerr
	})
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			return true, t, nil, nil
		}
		return false, ticket.Ticket{}, nil, err
	}
	return true, t, &r, nil
}

// ---- steps ----

func (s *Service) lookupTicket(ctx context.Context, ticketID string) (ticket.Ticket, *Result, error) {
	var t ticket.Ticket
	err := s.retryStorage(ctx, func() error {
		var lerr error
		t, lerr = s.registry.Lookup(ctx, ticketID)
		return lerr
	})
	if err != nil {
		if errors.Is(err, ticket.ErrNotFound) || errors.Is(err, ticket.ErrInvalidInput) {
			s.log.Info("scan.ticket.unknown", "ticket_id", ticketID)
			r := s.invalidReason(reasonNotFound)
			return ticket.Ticket{}, &r, nil
		}
		return ticket.Ticket{}, nil, err
	}
	return t, nil, nil
}

// replayIfUsed returns the USED result when a record already exists. A second
// scan of a used ticket is a normal event: same status, same original
// timestamp, no state change.
func (s *Service) replayIfUsed(ctx context.Context, t ticket.Ticket) (*Result, error) {
	var r attendance.Record
	err := s.retryStorage(ctx, func() error {
		var gerr error
		r, gerr = s.ledger.Get(ctx, t.TicketID)
		return gerr
	})
	if err != nil {
		if errors.Is(err, attendance.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	s.metrics.ObserveScan(StatusUsed)
	return &Result{
		Status:    StatusUsed,
		Reason:    reasonUsed,
		Ticket:    &t,
		Record:    &r,
		Timestamp: r.Timestamp,
	}, nil
}

func (s *Service) commitCheckIn(ctx context.Context, t ticket.Ticket, roster []attendance.MemberAttendance, operator string) (Result, error) {
	var rec attendance.Record
	err := s.retryStorage(ctx, func() error {
		var cerr error
		rec, cerr = s.ledger.RecordCheckIn(ctx, attendance.CheckInInput{
			TicketID:  t.TicketID,
			ScannedBy: operator,
			Members:   roster,
		})
		return cerr
	})
	if err != nil {
		if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
			// Lost the race to a concurrent scan; answer with the
			// winner's record.
			if res, rerr := s.replayIfUsed(ctx, t); rerr == nil && res != nil {
				return *res, nil
			} else if rerr != nil {
				return Result{}, rerr
			}
		}
		return Result{}, err
	}

	s.metrics.ObserveScan(StatusValid)
	s.metrics.ObserveCheckIn()
	s.log.Info("scan.checkin",
		"ticket_id", t.TicketID,
		"team", t.TeamName,
		"scanned_by", rec.ScannedBy,
		"present", rec.PresentCount(),
	)
	s.announce.AnnounceCheckIn(Announcement{
		TicketID:     t.TicketID,
		TeamName:     t.TeamName,
		ScannedBy:    rec.ScannedBy,
		Timestamp:    rec.Timestamp,
		PresentCount: rec.PresentCount(),
		TeamSize:     t.TeamSize,
	})

	return Result{
		Status:    StatusValid,
		Reason:    reasonEntryAllowed,
		Ticket:    &t,
		Record:    &rec,
		Timestamp: rec.Timestamp,
	}, nil
}

// retryStorage runs fn and retries exactly once, after a short backoff, when
// the failure is the transient storage-unavailable class.
func (s *Service) retryStorage(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isStorageUnavailable(err) {
		return err
	}

	s.log.Warn("storage.retry", "err", err)
	select {
	case <-time.After(retryBackoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn()
}

func isStorageUnavailable(err error) bool {
	return errors.Is(err, ticket.ErrStorageUnavailable) ||
		errors.Is(err, attendance.ErrStorageUnavailable)
}

func (s *Service) invalid(logCtx string, cause error) Result {
	if cause != nil {
		s.log.Info(logCtx, "err", cause)
	} else {
		s.log.Info(logCtx)
	}
	return s.invalidReason(reasonBadCode)
}

func (s *Service) invalidReason(reason string) Result {
	s.metrics.ObserveScan(StatusInvalid)
	return Result{Status: StatusInvalid, Reason: reason}
}
