package ticket

import "time"

// Member is one entry of a ticket's team roster.
type Member struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// Ticket is the registry record for one issued ticket.
//
// A ticket is created once at issuance and immutable afterwards; the only
// mutation is administrative delete, which cascades to the attendance
// ledger. The stored QRPayload is the sealed envelope, kept verbatim so the
// QR image can be regenerated on demand without re-signing.
type Ticket struct {
	TicketID        string    `json:"ticket_id"`
	UserID          string    `json:"user_id"`
	TeamName        string    `json:"team_name"`
	CollegeName     string    `json:"college_name"`
	TeamLeaderEmail string    `json:"team_leader_email"`
	TeamSize        int       `json:"team_size"`
	Slot            string    `json:"slot"`
	EventName       string    `json:"event_name"`
	Members         []Member  `json:"team_members"`
	QRPayload       string    `json:"qr_payload"`
	IssuedAt        time.Time `json:"issued_at"`
	CreatedAt       time.Time `json:"created_at"`
	CreatedBy       string    `json:"created_by"`
}
