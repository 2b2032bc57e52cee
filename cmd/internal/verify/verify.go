// Package verify composes the payload codec, ticket registry, and attendance
// ledger into the scan-time admission decision.
package verify

import (
	"time"

	"gatepass/cmd/internal/attendance"
	"gatepass/cmd/internal/ticket"
)

// Status is the outcome of a scan or manual-entry decision.
type Status string

const (
	StatusValid          Status = "VALID"
	StatusUsed           Status = "USED"
	StatusInvalid        Status = "INVALID"
	StatusTeamAttendance Status = "TEAM_ATTENDANCE"
)

// Result is the decision handed back to the gate operator.
//
// Reason is always safe to show externally; decode detail stays in the logs
// so the response is no oracle for forgery attempts.
type Result struct {
	Status    Status
	Reason    string
	Ticket    *ticket.Ticket
	Record    *attendance.Record
	Roster    []ticket.Member
	Timestamp time.Time
}

// Announcement is pushed to live feed subscribers after a committed check-in.
type Announcement struct {
	TicketID     string    `json:"ticket_id"`
	TeamName     string    `json:"team_name"`
	ScannedBy    string    `json:"scanned_by"`
	Timestamp    time.Time `json:"timestamp"`
	PresentCount int       `json:"present_count"`
	TeamSize     int       `json:"team_size"`
}

// Announcer receives check-in announcements. Implementations must not block.
type Announcer interface {
	AnnounceCheckIn(Announcement)
}

// Metrics receives decision outcomes.
type Metrics interface {
	ObserveScan(status Status)
	ObserveCheckIn()
}

type noopAnnouncer struct{}

func (noopAnnouncer) AnnounceCheckIn(Announcement) {}

type noopMetrics struct{}

func (noopMetrics) ObserveScan(Status) {}
func (noopMetrics) ObserveCheckIn()    {}
