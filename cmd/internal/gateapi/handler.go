// Package gateapi is the HTTP surface of the gate: operator login, ticket
// administration, and the scan endpoints used at the door.
package gateapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"gatepass/cmd/internal/attendance"
	"gatepass/cmd/internal/auth"
	"gatepass/cmd/internal/scanfeed"
	"gatepass/cmd/internal/ticket"
	"gatepass/cmd/internal/verify"
)

const defaultMaxBodyBytes = 64 << 10

const qrImageSize = 512

type operatorKey struct{}

// Handler routes the public API. All routes except login and health live
// behind the operator token.
type Handler struct {
	log      *slog.Logger
	auth     *auth.Service
	registry *ticket.Registry
	ledger   *attendance.Ledger
	verifier *verify.Service
	feed     *scanfeed.Gateway
	maxBody  int64
}

func NewHandler(log *slog.Logger, authSvc *auth.Service, registry *ticket.Registry, ledger *attendance.Ledger, verifier *verify.Service, feed *scanfeed.Gateway) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		log:      log,
		auth:     authSvc,
		registry: registry,
		ledger:   ledger,
		verifier: verifier,
		feed:     feed,
		maxBody:  defaultMaxBodyBytes,
	}
}

// Register mounts all routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/login", h.handleLogin)

	mux.Handle("POST /api/tickets", h.requireOperator(h.handleCreateTicket))
	mux.Handle("GET /api/tickets", h.requireOperator(h.handleListTickets))
	mux.Handle("GET /api/tickets/{id}", h.requireOperator(h.handleGetTicket))
	mux.Handle("DELETE /api/tickets/{id}", h.requireOperator(h.handleDeleteTicket))
	mux.Handle("GET /api/tickets/{id}/qr.png", h.requireOperator(h.handleTicketQR))
	mux.Handle("GET /api/stats", h.requireOperator(h.handleStats))

	mux.Handle("POST /scan/verify", h.requireOperator(h.handleVerify))
	mux.Handle("POST /scan/team-attendance", h.requireOperator(h.handleTeamAttendance))
	mux.Handle("POST /scan/manual", h.requireOperator(h.handleManual))
	mux.Handle("GET /scan/check/{id}", h.requireOperator(h.handleCheckStatus))

	if h.feed != nil {
		mux.Handle("GET /scan/feed", h.requireOperator(h.feed.HandleWS))
	}
}

// requireOperator verifies the bearer token and stashes the operator identity
// in the request context. The websocket route may carry the token as a query
// parameter because browser clients cannot set headers on the upgrade request.
func (h *Handler) requireOperator(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing operator token")
			return
		}
		op, err := h.auth.VerifyToken(token, time.Now().UTC())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired operator token")
			return
		}
		ctx := context.WithValue(r.Context(), operatorKey{}, op)
		next(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	raw := r.Header.Get("Authorization")
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func operatorFrom(ctx context.Context) auth.Operator {
	op, _ := ctx.Value(operatorKey{}).(auth.Operator)
	return op
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	token, exp, err := h.auth.Login(req.Username, req.Password, req.OperatorName, time.Now().UTC())
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid username or password")
			return
		}
		h.log.Error("auth.login", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}

	op, err := h.auth.VerifyToken(token, time.Now().UTC())
	if err != nil {
		h.log.Error("auth.login.verify", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "login failed")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Operator: op.Name, ExpiresAt: exp})
}

func (h *Handler) handleCreateTicket(w http.ResponseWriter, r *http.Request) {
	var req createTicketRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	members := make([]ticket.Member, 0, len(req.Members))
	for _, m := range req.Members {
		members = append(members, ticket.Member{MemberID: m.MemberID, Name: m.Name, Position: m.Position})
	}

	t, err := h.registry.Issue(r.Context(), ticket.IssueInput{
		TeamName:        req.TeamName,
		CollegeName:     req.CollegeName,
		TeamLeaderEmail: req.TeamLeaderEmail,
		Slot:            req.Slot,
		EventName:       req.EventName,
		Members:         members,
		CreatedBy:       operatorFrom(r.Context()).Name,
	})
	if err != nil {
		h.writeDomainError(w, "ticket.create", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTicketResponse(t, true))
}

func (h *Handler) handleListTickets(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.registry.ListAll(r.Context())
	if err != nil {
		h.writeDomainError(w, "ticket.list", err)
		return
	}

	out := listTicketsResponse{Tickets: make([]ticketResponse, 0, len(tickets))}
	for _, t := range tickets {
		resp := toTicketResponse(t, false)
		rec, err := h.ledger.Get(r.Context(), t.TicketID)
		switch {
		case err == nil:
			resp.AttendanceStatus = "checked_in"
			ts := rec.Timestamp
			resp.ScannedAt = &ts
		case errors.Is(err, attendance.ErrNotFound):
			resp.AttendanceStatus = "pending"
		default:
			h.writeDomainError(w, "ticket.list.attendance", err)
			return
		}
		out.Tickets = append(out.Tickets, resp)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.registry.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, "ticket.get", err)
		return
	}
	writeJSON(w, http.StatusOK, toTicketResponse(t, true))
}

func (h *Handler) handleDeleteTicket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.registry.Delete(r.Context(), id); err != nil {
		h.writeDomainError(w, "ticket.delete", err)
		return
	}
	h.log.Info("ticket.deleted", "ticket_id", id, "operator", operatorFrom(r.Context()).Name)
	w.WriteHeader(http.StatusNoContent)
}

// handleTicketQR renders the sealed payload as a PNG so tickets can be
// reissued without re-minting the envelope.
func (h *Handler) handleTicketQR(w http.ResponseWriter, r *http.Request) {
	t, err := h.registry.Lookup(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, "ticket.qr", err)
		return
	}

	png, err := qrcode.Encode(t.QRPayload, qrcode.Medium, qrImageSize)
	if err != nil {
		h.log.Error("ticket.qr.encode", "ticket_id", t.TicketID, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "could not render QR code")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	tickets, err := h.registry.ListAll(r.Context())
	if err != nil {
		h.writeDomainError(w, "stats", err)
		return
	}

	stats := statsResponse{TotalTickets: len(tickets)}
	for _, t := range tickets {
		used, err := h.ledger.IsCheckedIn(r.Context(), t.TicketID)
		if err != nil {
			h.writeDomainError(w, "stats.attendance", err)
			return
		}
		if used {
			stats.CheckedIn++
		}
	}
	stats.Pending = stats.TotalTickets - stats.CheckedIn
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	res, err := h.verifier.Verify(r.Context(), req.QRData, operatorFrom(r.Context()).Name)
	if err != nil {
		h.writeDomainError(w, "scan.verify", err)
		return
	}
	writeJSON(w, http.StatusOK, toVerifyResponse(res))
}

func (h *Handler) handleTeamAttendance(w http.ResponseWriter, r *http.Request) {
	var req teamAttendanceRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	res, err := h.verifier.RecordTeamAttendance(r.Context(), req.TicketID, req.PresentMemberIDs, operatorFrom(r.Context()).Name)
	if err != nil {
		h.writeDomainError(w, "scan.team_attendance", err)
		return
	}
	writeJSON(w, http.StatusOK, toVerifyResponse(res))
}

func (h *Handler) handleManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := decodeJSON(w, r, h.maxBody, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	res, err := h.verifier.ManualCheckIn(r.Context(), req.TicketID, operatorFrom(r.Context()).Name)
	if err != nil {
		h.writeDomainError(w, "scan.manual", err)
		return
	}
	writeJSON(w, http.StatusOK, toVerifyResponse(res))
}

func (h *Handler) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	exists, t, record, err := h.verifier.CheckStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeDomainError(w, "scan.check", err)
		return
	}

	resp := checkStatusResponse{Exists: exists}
	if exists {
		tr := toTicketResponse(t, false)
		resp.Ticket = &tr
	}
	if record != nil {
		resp.Used = true
		ts := record.Timestamp
		resp.UsedAt = &ts
	}
	writeJSON(w, http.StatusOK, resp)
}

func toVerifyResponse(res verify.Result) verifyResponse {
	out := verifyResponse{
		Success: res.Status == verify.StatusValid,
		Status:  string(res.Status),
		Message: res.Reason,
	}
	if res.Ticket != nil {
		tr := toTicketResponse(*res.Ticket, false)
		out.Ticket = &tr
	}
	out.Roster = toMemberEntries(res.Roster)
	if res.Record != nil {
		out.Members = toMemberStatusEntries(res.Record.Members)
		ts := res.Record.Timestamp
		out.ScannedAt = &ts
	}
	if !res.Timestamp.IsZero() {
		ts := res.Timestamp
		out.Timestamp = &ts
	}
	return out
}

// writeDomainError maps domain sentinels onto HTTP statuses. Anything
// unmapped is logged and reported as an opaque internal error.
func (h *Handler) writeDomainError(w http.ResponseWriter, logCtx string, err error) {
	switch {
	case errors.Is(err, ticket.ErrNotFound), errors.Is(err, attendance.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "ticket not found")
	case errors.Is(err, ticket.ErrInvalidInput), errors.Is(err, attendance.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request")
	case errors.Is(err, ticket.ErrDuplicateTicketID):
		writeError(w, http.StatusConflict, "conflict", "ticket ID already exists")
	case errors.Is(err, attendance.ErrAlreadyCheckedIn):
		writeError(w, http.StatusConflict, "conflict", "ticket already used for entry")
	case errors.Is(err, ticket.ErrStorageUnavailable), errors.Is(err, attendance.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, "storage_unavailable", "storage temporarily unavailable")
	default:
		h.log.Error(logCtx, "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
