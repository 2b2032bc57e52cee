package ticket

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gatepass/cmd/security/payload"
)

func testRegistry(t *testing.T) (*Registry, *MemoryStore, *payload.Codec) {
	t.Helper()
	codec, err := payload.NewCodec(
		[]byte(strings.Repeat("s", payload.MinSigningKeyBytes)),
		[]byte(strings.Repeat("c", payload.CipherKeyBytes)),
	)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	store := NewMemoryStore()
	reg, err := NewRegistry(store, codec)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg, store, codec
}

func TestRegistry_IssueAndLookup(t *testing.T) {
	reg, _, codec := testRegistry(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 20, 9, 0, 0, 0, time.UTC)

	issued, err := reg.Issue(ctx, IssueInput{
		TeamName:        "Alpha",
		CollegeName:     "Example Institute",
		TeamLeaderEmail: "lead@example.com",
		Slot:            "20 Feb 9:00 AM",
		EventName:       "HACKFEST2K26",
		CreatedBy:       "admin",
		Now:             now,
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if len(issued.TicketID) != 8 {
		t.Fatalf("ticket id %q: want 8 chars", issued.TicketID)
	}
	if !strings.HasPrefix(issued.UserID, "HF26") {
		t.Fatalf("user id %q: want HF26 prefix", issued.UserID)
	}
	if issued.TeamSize != 1 {
		t.Fatalf("team size = %d, want 1", issued.TeamSize)
	}

	// The stored envelope decodes back to the ticket's own identity.
	claims, err := codec.Decode(issued.QRPayload)
	if err != nil {
		t.Fatalf("Decode stored payload: %v", err)
	}
	if claims.TicketID != issued.TicketID || claims.UserID != issued.UserID {
		t.Fatalf("payload identity mismatch: %+v vs %+v", claims, issued)
	}
	if claims.IssuedAt != now.Unix() {
		t.Fatalf("issued_at = %d, want %d", claims.IssuedAt, now.Unix())
	}

	got, err := reg.Lookup(ctx, issued.TicketID)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got.TicketID != issued.TicketID || got.QRPayload != issued.QRPayload {
		t.Fatalf("lookup mismatch")
	}
}

func TestRegistry_LookupExactMatchOnly(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	issued, err := reg.Issue(ctx, IssueInput{TeamName: "Alpha"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := reg.Lookup(ctx, issued.TicketID[:4]); !errors.Is(err, ErrNotFound) {
		t.Fatalf("partial id lookup: expected ErrNotFound, got %v", err)
	}
	if _, err := reg.Lookup(ctx, strings.ToLower(issued.TicketID)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("case-folded lookup: expected ErrNotFound, got %v", err)
	}
}

func TestRegistry_IssueRequiresTeamName(t *testing.T) {
	reg, _, _ := testRegistry(t)

	if _, err := reg.Issue(context.Background(), IssueInput{TeamName: "   "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegistry_TeamSizeFollowsRoster(t *testing.T) {
	reg, _, _ := testRegistry(t)

	members := []Member{
		{MemberID: "M1", Name: "Ada", Position: "Lead"},
		{MemberID: "M2", Name: "Grace", Position: "Dev"},
		{MemberID: "M3", Name: "Edsger", Position: "Dev"},
	}
	issued, err := reg.Issue(context.Background(), IssueInput{TeamName: "Bravo", Members: members})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if issued.TeamSize != 3 {
		t.Fatalf("team size = %d, want 3", issued.TeamSize)
	}
	if len(issued.Members) != 3 || issued.Members[1].MemberID != "M2" {
		t.Fatalf("roster not preserved: %+v", issued.Members)
	}
}

func TestRegistry_ListAllInsertionOrder(t *testing.T) {
	reg, _, _ := testRegistry(t)
	ctx := context.Background()

	var want []string
	for _, name := range []string{"Alpha", "Bravo", "Charlie"} {
		issued, err := reg.Issue(ctx, IssueInput{TeamName: name})
		if err != nil {
			t.Fatalf("Issue(%s): %v", name, err)
		}
		want = append(want, issued.TicketID)
	}

	all, err := reg.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != len(want) {
		t.Fatalf("len = %d, want %d", len(all), len(want))
	}
	for i := range want {
		if all[i].TicketID != want[i] {
			t.Fatalf("position %d: got %s want %s", i, all[i].TicketID, want[i])
		}
	}
}

func TestRegistry_DeleteCascades(t *testing.T) {
	reg, store, codec := testRegistry(t)
	cascade := &recordingCascade{}
	reg2, err := NewRegistry(store, codec, WithAttendanceCascade(cascade))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	ctx := context.Background()

	issued, err := reg.Issue(ctx, IssueInput{TeamName: "Alpha"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if err := reg2.Delete(ctx, issued.TicketID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(cascade.deleted) != 1 || cascade.deleted[0] != issued.TicketID {
		t.Fatalf("cascade not invoked: %v", cascade.deleted)
	}
	if _, err := reg2.Lookup(ctx, issued.TicketID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	if err := reg2.Delete(ctx, issued.TicketID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: expected ErrNotFound, got %v", err)
	}
}

type recordingCascade struct {
	deleted []string
}

func (c *recordingCascade) DeleteByTicket(_ context.Context, ticketID string) error {
	c.deleted = append(c.deleted, ticketID)
	return nil
}

func TestMemoryStore_DuplicateTicketID(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	tk := Ticket{TicketID: "A1B2C3D4", UserID: "HF26XYZ123", TeamName: "Alpha"}
	if err := store.Create(ctx, tk); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := store.Create(ctx, tk); !errors.Is(err, ErrDuplicateTicketID) {
		t.Fatalf("expected ErrDuplicateTicketID, got %v", err)
	}

	// The original record is untouched.
	got, err := store.Get(ctx, tk.TicketID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.TeamName != "Alpha" {
		t.Fatalf("record overwritten: %+v", got)
	}
}

func TestNewTicketID_Shape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		id, err := NewTicketID()
		if err != nil {
			t.Fatalf("NewTicketID: %v", err)
		}
		if len(id) != 8 {
			t.Fatalf("id %q: want 8 chars", id)
		}
		if id != strings.ToUpper(id) {
			t.Fatalf("id %q: want uppercase", id)
		}
		seen[id] = true
	}
	if len(seen) < 60 {
		t.Fatalf("suspiciously many collisions: %d unique of 64", len(seen))
	}
}
