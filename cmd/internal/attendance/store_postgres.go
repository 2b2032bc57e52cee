package attendance

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PostgresStore persists the attendance ledger in PostgreSQL.
//
// Expected schema (managed externally):
//
//	CREATE TABLE gatepass.attendance (
//	    ticket_id  TEXT PRIMARY KEY,
//	    id         TEXT NOT NULL,
//	    ts         TIMESTAMPTZ NOT NULL,
//	    status     TEXT NOT NULL,
//	    scanned_by TEXT NOT NULL,
//	    members    JSONB NOT NULL DEFAULT '[]'
//	);
//
// The primary key on ticket_id is the at-most-once guarantee: concurrent
// inserts for one ticket race on the index and the storage engine picks
// exactly one winner. No advisory locks needed.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

// WithSchema sets the DB schema used by the store (default: "gatepass").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "gatepass"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

// Insert records a check-in. A primary-key conflict maps to
// ErrAlreadyCheckedIn.
func (s *PostgresStore) Insert(ctx context.Context, r Record) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(r.TicketID) == "" {
		return ErrInvalidInput
	}

	members, err := json.Marshal(membersOrEmpty(r.Members))
	if err != nil {
		return err
	}

	ledger := pgIdent(s.schema, "attendance")
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+ledger+` (ticket_id, id, ts, status, scanned_by, members)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.TicketID,
		r.ID,
		r.Timestamp,
		r.Status,
		r.ScannedBy,
		members,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrAlreadyCheckedIn
		}
		return err
	}
	return nil
}

// Get fetches the check-in record for a ticket.
func (s *PostgresStore) Get(ctx context.Context, ticketID string) (Record, error) {
	if s == nil || s.pool == nil {
		return Record{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	ledger := pgIdent(s.schema, "attendance")
	var out Record
	var members []byte
	err := s.pool.QueryRow(ctx,
		`SELECT ticket_id, id, ts, status, scanned_by, members
		   FROM `+ledger+`
		  WHERE ticket_id = $1`,
		ticketID,
	).Scan(
		&out.TicketID,
		&out.ID,
		&out.Timestamp,
		&out.Status,
		&out.ScannedBy,
		&members,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &out.Members); err != nil {
			return Record{}, err
		}
	}
	if len(out.Members) == 0 {
		out.Members = nil
	}
	return out, nil
}

// Delete removes the check-in record for a ticket.
func (s *PostgresStore) Delete(ctx context.Context, ticketID string) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	ledger := pgIdent(s.schema, "attendance")
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+ledger+` WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func membersOrEmpty(m []MemberAttendance) []MemberAttendance {
	if m == nil {
		return []MemberAttendance{}
	}
	return m
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
