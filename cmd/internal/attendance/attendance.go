package attendance

import "time"

// Statuses recorded for a ticket or an individual member.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// MemberAttendance is one roster entry of a team check-in.
type MemberAttendance struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Status   string `json:"status"`
}

// Record is the ledger entry proving a ticket was admitted.
//
// At most one Record exists per ticket ID; that uniqueness is the single-use
// guarantee the whole service exists to enforce. Records are written once on
// the first successful scan and never mutated, only removed when the owning
// ticket is administratively deleted.
type Record struct {
	ID        string             `json:"id"`
	TicketID  string             `json:"ticket_id"`
	Timestamp time.Time          `json:"timestamp"`
	Status    string             `json:"status"`
	ScannedBy string             `json:"scanned_by"`
	Members   []MemberAttendance `json:"member_attendance,omitempty"`
}

// PresentCount returns how many roster members were marked present.
// For single-member records without a roster it returns 1.
func (r Record) PresentCount() int {
	if len(r.Members) == 0 {
		return 1
	}
	n := 0
	for _, m := range r.Members {
		if m.Status == StatusPresent {
			n++
		}
	}
	return n
}
