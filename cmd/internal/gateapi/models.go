package gateapi

import (
	"time"

	"gatepass/cmd/internal/attendance"
	"gatepass/cmd/internal/ticket"
)

type loginRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	OperatorName string `json:"operator_name"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Operator  string    `json:"operator"`
	ExpiresAt time.Time `json:"expires_at"`
}

type createTicketRequest struct {
	TeamName        string        `json:"team_name"`
	CollegeName     string        `json:"college_name"`
	TeamLeaderEmail string        `json:"team_leader_email"`
	Slot            string        `json:"slot"`
	EventName       string        `json:"event_name"`
	Members         []memberEntry `json:"team_members"`
}

type memberEntry struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type verifyRequest struct {
	QRData string `json:"qr_data"`
}

type manualRequest struct {
	TicketID string `json:"ticket_id"`
}

type teamAttendanceRequest struct {
	TicketID         string   `json:"ticket_id"`
	PresentMemberIDs []string `json:"present_member_ids"`
}

type ticketResponse struct {
	TicketID         string        `json:"ticket_id"`
	UserID           string        `json:"user_id"`
	TeamName         string        `json:"team_name"`
	CollegeName      string        `json:"college_name,omitempty"`
	TeamLeaderEmail  string        `json:"team_leader_email,omitempty"`
	TeamSize         int           `json:"team_size"`
	Slot             string        `json:"slot,omitempty"`
	EventName        string        `json:"event_name,omitempty"`
	Members          []memberEntry `json:"team_members,omitempty"`
	QRPayload        string        `json:"qr_payload,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	CreatedBy        string        `json:"created_by"`
	AttendanceStatus string        `json:"attendance_status,omitempty"`
	ScannedAt        *time.Time    `json:"scanned_at,omitempty"`
}

type verifyResponse struct {
	Success   bool                `json:"success"`
	Status    string              `json:"status"`
	Message   string              `json:"message"`
	Ticket    *ticketResponse     `json:"ticket,omitempty"`
	Roster    []memberEntry       `json:"team_members,omitempty"`
	Members   []memberStatusEntry `json:"member_attendance,omitempty"`
	Timestamp *time.Time          `json:"timestamp,omitempty"`
	ScannedAt *time.Time          `json:"scanned_at,omitempty"`
}

type memberStatusEntry struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Position string `json:"position"`
	Status   string `json:"status"`
}

type checkStatusResponse struct {
	Exists bool            `json:"exists"`
	Used   bool            `json:"used"`
	Ticket *ticketResponse `json:"ticket,omitempty"`
	UsedAt *time.Time      `json:"used_at,omitempty"`
}

type statsResponse struct {
	TotalTickets int `json:"total_tickets"`
	CheckedIn    int `json:"checked_in"`
	Pending      int `json:"pending"`
}

type listTicketsResponse struct {
	Tickets []ticketResponse `json:"tickets"`
}

func toTicketResponse(t ticket.Ticket, includePayload bool) ticketResponse {
	resp := ticketResponse{
		TicketID:        t.TicketID,
		UserID:          t.UserID,
		TeamName:        t.TeamName,
		CollegeName:     t.CollegeName,
		TeamLeaderEmail: t.TeamLeaderEmail,
		TeamSize:        t.TeamSize,
		Slot:            t.Slot,
		EventName:       t.EventName,
		Members:         toMemberEntries(t.Members),
		CreatedAt:       t.CreatedAt,
		CreatedBy:       t.CreatedBy,
	}
	if includePayload {
		resp.QRPayload = t.QRPayload
	}
	return resp
}

func toMemberEntries(members []ticket.Member) []memberEntry {
	if len(members) == 0 {
		return nil
	}
	out := make([]memberEntry, 0, len(members))
	for _, m := range members {
		out = append(out, memberEntry{MemberID: m.MemberID, Name: m.Name, Position: m.Position})
	}
	return out
}

func toMemberStatusEntries(members []attendance.MemberAttendance) []memberStatusEntry {
	if len(members) == 0 {
		return nil
	}
	out := make([]memberStatusEntry, 0, len(members))
	for _, m := range members {
		out = append(out, memberStatusEntry{MemberID: m.MemberID, Name: m.Name, Position: m.Position, Status: m.Status})
	}
	return out
}
