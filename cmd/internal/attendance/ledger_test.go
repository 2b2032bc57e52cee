package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func testLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(NewMemoryStore())
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return l
}

func TestLedger_RecordCheckIn(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	now := time.Date(2026, 2, 20, 10, 30, 0, 0, time.UTC)

	r, err := l.RecordCheckIn(ctx, CheckInInput{TicketID: "A1B2C3D4", ScannedBy: "gate-1", Now: now})
	if err != nil {
		t.Fatalf("RecordCheckIn: %v", err)
	}
	if r.ID == "" {
		t.Fatalf("missing record id")
	}
	if r.Status != StatusPresent {
		t.Fatalf("status = %q, want %q", r.Status, StatusPresent)
	}
	if !r.Timestamp.Equal(now) {
		t.Fatalf("timestamp = %v, want %v", r.Timestamp, now)
	}

	used, err := l.IsCheckedIn(ctx, "A1B2C3D4")
	if err != nil {
		t.Fatalf("IsCheckedIn: %v", err)
	}
	if !used {
		t.Fatalf("expected checked in")
	}

	if _, err := l.RecordCheckIn(ctx, CheckInInput{TicketID: "A1B2C3D4", ScannedBy: "gate-2"}); !errors.Is(err, ErrAlreadyCheckedIn) {
		t.Fatalf("expected ErrAlreadyCheckedIn, got %v", err)
	}

	// The original record is untouched by the losing write.
	got, err := l.Get(ctx, "A1B2C3D4")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ScannedBy != "gate-1" || !got.Timestamp.Equal(now) {
		t.Fatalf("record mutated: %+v", got)
	}
}

func TestLedger_ConcurrentCheckInSingleWinner(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	var wins, losses int

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.RecordCheckIn(ctx, CheckInInput{TicketID: "RACE0001", ScannedBy: "gate"})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, ErrAlreadyCheckedIn):
				losses++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 || losses != workers-1 {
		t.Fatalf("wins=%d losses=%d, want 1/%d", wins, losses, workers-1)
	}
}

func TestLedger_DifferentTicketsDoNotConflict(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	for _, id := range []string{"AAAA1111", "BBBB2222", "CCCC3333"} {
		if _, err := l.RecordCheckIn(ctx, CheckInInput{TicketID: id, ScannedBy: "gate"}); err != nil {
			t.Fatalf("RecordCheckIn(%s): %v", id, err)
		}
	}
}

func TestLedger_MemberRosterValidation(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	_, err := l.RecordCheckIn(ctx, CheckInInput{
		TicketID:  "T1T1T1T1",
		ScannedBy: "gate",
		Members: []MemberAttendance{
			{MemberID: "M1", Name: "Ada", Status: "maybe"},
		},
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad member status, got %v", err)
	}

	r, err := l.RecordCheckIn(ctx, CheckInInput{
		TicketID:  "T2T2T2T2",
		ScannedBy: "gate",
		Members: []MemberAttendance{
			{MemberID: "M1", Name: "Ada", Status: StatusPresent},
			{MemberID: "M2", Name: "Grace", Status: StatusAbsent},
			{MemberID: "M3", Name: "Edsger", Status: StatusAbsent},
		},
	})
	if err != nil {
		t.Fatalf("RecordCheckIn: %v", err)
	}
	if r.PresentCount() != 1 {
		t.Fatalf("present count = %d, want 1", r.PresentCount())
	}
}

func TestLedger_DeleteByTicketIdempotent(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	if _, err := l.RecordCheckIn(ctx, CheckInInput{TicketID: "DEL00001", ScannedBy: "gate"}); err != nil {
		t.Fatalf("RecordCheckIn: %v", err)
	}
	if err := l.DeleteByTicket(ctx, "DEL00001"); err != nil {
		t.Fatalf("DeleteByTicket: %v", err)
	}
	if _, err := l.Get(ctx, "DEL00001"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	// Cascade contract: deleting again (or a never-scanned ticket) is a no-op.
	if err := l.DeleteByTicket(ctx, "DEL00001"); err != nil {
		t.Fatalf("second DeleteByTicket: %v", err)
	}
}

func TestLedger_TimeoutIsStorageUnavailable(t *testing.T) {
	l, err := NewLedger(blockingStore{}, WithStorageTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}

	_, err = l.RecordCheckIn(context.Background(), CheckInInput{TicketID: "SLOW0001", ScannedBy: "gate"})
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
}

// blockingStore never answers; used to exercise the timeout mapping.
type blockingStore struct{}

func (blockingStore) Insert(ctx context.Context, _ Record) error {
	<-ctx.Done()
	return ctx.Err()
}

func (blockingStore) Get(ctx context.Context, _ string) (Record, error) {
	<-ctx.Done()
	return Record{}, ctx.Err()
}

func (blockingStore) Delete(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}
