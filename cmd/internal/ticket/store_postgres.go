package ticket

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

// PostgresStore persists tickets in PostgreSQL.
//
// Expected schema (managed externally):
//
//	CREATE TABLE gatepass.tickets (
//	    seq               BIGINT GENERATED ALWAYS AS IDENTITY,
//	    ticket_id         TEXT PRIMARY KEY,
//	    user_id           TEXT NOT NULL,
//	    team_name         TEXT NOT NULL,
//	    college_name      TEXT NOT NULL DEFAULT '',
//	    team_leader_email TEXT NOT NULL DEFAULT '',
//	    team_size         INT NOT NULL DEFAULT 1,
//	    slot              TEXT NOT NULL DEFAULT '',
//	    event_name        TEXT NOT NULL DEFAULT '',
//	    members           JSONB NOT NULL DEFAULT '[]',
//	    qr_payload        TEXT NOT NULL,
//	    issued_at         TIMESTAMPTZ NOT NULL,
//	    created_at        TIMESTAMPTZ NOT NULL,
//	    created_by        TEXT NOT NULL
//	);
//
// The primary key gives Create its no-overwrite guarantee; seq preserves
// insertion order for List.
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

// Create inserts a new ticket row. A primary-key conflict maps to
// ErrDuplicateTicketID.
func (s *PostgresStore) Create(ctx context.Context, t Ticket) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(t.TicketID) == "" || strings.TrimSpace(t.UserID) == "" {
		return ErrInvalidInput
	}

	members, err := json.Marshal(membersOrEmpty(t.Members))
	if err != nil {
		return err
	}

	tickets := pgIdent(s.schema, "tickets")
	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+tickets+` (
		     ticket_id, user_id, team_name, college_name, team_leader_email,
		     team_size, slot, event_name, members, qr_payload,
		     issued_at, created_at, created_by
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.TicketID,
		t.UserID,
		t.TeamName,
		t.CollegeName,
		t.TeamLeaderEmail,
		t.TeamSize,
		t.Slot,
		t.EventName,
		members,
		t.QRPayload,
		t.IssuedAt,
		t.CreatedAt,
		t.CreatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateTicketID
		}
		return err
	}
	return nil
}

// Get fetches a ticket by exact ID.
func (s *PostgresStore) Get(ctx context.Context, ticketID string) (Ticket, error) {
	if s == nil || s.pool == nil {
		return Ticket{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Ticket{}, err
	}

	tickets := pgIdent(s.schema, "tickets")
	row := s.pool.QueryRow(ctx,
		`SELECT ticket_id, user_id, team_name, college_name, team_leader_email,
		        team_size, slot, event_name, members, qr_payload,
		        issued_at, created_at, created_by
		   FROM `+tickets+`
		  WHERE ticket_id = $1`,
		ticketID,
	)
	t, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Ticket{}, ErrNotFound
		}
		return Ticket{}, err
	}
	return t, nil
}

// Delete removes a ticket row by ID.
func (s *PostgresStore) Delete(ctx context.Context, ticketID string) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tickets := pgIdent(s.schema, "tickets")
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM `+tickets+` WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all tickets ordered by insertion.
func (s *PostgresStore) List(ctx context.Context) ([]Ticket, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tickets := pgIdent(s.schema, "tickets")
	rows, err := s.pool.Query(ctx,
		`SELECT ticket_id, user_id, team_name, college_name, team_leader_email,
		        team_size, slot, event_name, members, qr_payload,
		        issued_at, created_at, created_by
		   FROM `+tickets+`
		  ORDER BY seq ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (Ticket, error) {
	var t Ticket
	var members []byte
	err := row.Scan(
		&t.TicketID,
		&t.UserID,
		&t.TeamName,
		&t.CollegeName,
		&t.TeamLeaderEmail,
		&t.TeamSize,
		&t.Slot,
		&t.EventName,
		&members,
		&t.QRPayload,
		&t.IssuedAt,
		&t.CreatedAt,
		&t.CreatedBy,
	)
	if err != nil {
		return Ticket{}, err
	}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &t.Members); err != nil {
			return Ticket{}, err
		}
	}
	if len(t.Members) == 0 {
		t.Members = nil
	}
	return t, nil
}

func membersOrEmpty(m []Member) []Member {
	if m == nil {
		return []Member{}
	}
	return m
}

func pgIdent(schema, table string) string {
	return pgx.Identifier{schema, table}.Sanitize()
}
