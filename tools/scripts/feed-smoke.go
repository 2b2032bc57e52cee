// Package main provides a CI-friendly smoke test for a running gatepass
// server.
//
// It validates:
//   - operator login
//   - ticket issue with a sealed QR payload
//   - live feed announcement on the first scan
//   - USED replay on the second scan
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const maxReadBytes = 1 << 20 // 1MiB

type announcement struct {
	TicketID     string    `json:"ticket_id"`
	TeamName     string    `json:"team_name"`
	ScannedBy    string    `json:"scanned_by"`
	Timestamp    time.Time `json:"timestamp"`
	PresentCount int       `json:"present_count"`
	TeamSize     int       `json:"team_size"`
}

func main() {
	var (
		baseURL  = flag.String("base", "http://127.0.0.1:8080", "gatepass base URL")
		username = flag.String("username", "admin", "admin username")
		password = flag.String("password", "", "admin password")
		operator = flag.String("operator", "smoke", "operator display name")
		team     = flag.String("team", "Smoke Test Crew", "team name for the issued ticket")
		timeout  = flag.Duration("timeout", 7*time.Second, "per-step timeout")
		verbose  = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -base: %v", err)
	}
	if *password == "" {
		fatalf("-password is required")
	}

	root := context.Background()

	token := mustLogin(root, *baseURL, *username, *password, *operator, *timeout)
	if *verbose {
		fmt.Printf("logged in as operator %q\n", *operator)
	}

	conn := mustSubscribeFeed(root, *baseURL, token, *timeout)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	ticketID, qrPayload := mustIssueTicket(root, *baseURL, token, *team, *timeout)
	if *verbose {
		fmt.Printf("issued ticket %s\n", ticketID)
	}

	status1 := mustScan(root, *baseURL, token, qrPayload, *timeout)
	if status1 != "VALID" {
		fatalf("first scan: status=%s, want VALID", status1)
	}

	mustReceiveAnnouncement(root, conn, ticketID, *timeout)

	status2 := mustScan(root, *baseURL, token, qrPayload, *timeout)
	if status2 != "USED" {
		fatalf("second scan: status=%s, want USED", status2)
	}

	fmt.Printf("OK: ticket=%s first=%s second=%s\n", ticketID, status1, status2)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func wsBaseURL(base string) string {
	switch {
	case strings.HasPrefix(base, "https://"):
		return "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		return "ws://" + strings.TrimPrefix(base, "http://")
	default:
		return "ws://" + base
	}
}

func mustLogin(parent context.Context, base, username, password, operator string, stepTimeout time.Duration) string {
	var out struct {
		Token string `json:"token"`
	}
	status := mustPostJSON(parent, base+"/auth/login", "", map[string]string{
		"username":      username,
		"password":      password,
		"operator_name": operator,
	}, &out, stepTimeout)
	if status != http.StatusOK {
		fatalf("login: status=%d", status)
	}
	if out.Token == "" {
		fatalf("login: empty token")
	}
	return out.Token
}

func mustSubscribeFeed(parent context.Context, base, token string, stepTimeout time.Duration) *websocket.Conn {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	feedURL := wsBaseURL(base) + "/scan/feed?token=" + url.QueryEscape(token)
	conn, resp, err := websocket.Dial(ctx, feedURL, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		fatalf("feed dial (status=%d): %v", status, err)
	}
	conn.SetReadLimit(maxReadBytes)
	return conn
}

func mustIssueTicket(parent context.Context, base, token, team string, stepTimeout time.Duration) (ticketID, qrPayload string) {
	var out struct {
		TicketID  string `json:"ticket_id"`
		QRPayload string `json:"qr_payload"`
	}
	status := mustPostJSON(parent, base+"/api/tickets", token, map[string]any{
		"team_name":  team,
		"event_name": "feed-smoke",
		"team_members": []map[string]string{
			{"member_id": "M1", "name": "Smoke", "position": "Lead"},
		},
	}, &out, stepTimeout)
	if status != http.StatusCreated {
		fatalf("issue ticket: status=%d", status)
	}
	if out.TicketID == "" || out.QRPayload == "" {
		fatalf("issue ticket: incomplete response %+v", out)
	}
	return out.TicketID, out.QRPayload
}

func mustScan(parent context.Context, base, token, qrPayload string, stepTimeout time.Duration) string {
	var out struct {
		Status  string `json:"status"`
		Message string `json:"message"`
	}
	status := mustPostJSON(parent, base+"/scan/verify", token, map[string]string{
		"qr_data": qrPayload,
	}, &out, stepTimeout)
	if status != http.StatusOK {
		fatalf("scan: status=%d", status)
	}
	return out.Status
}

func mustReceiveAnnouncement(parent context.Context, conn *websocket.Conn, ticketID string, stepTimeout time.Duration) {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	for {
		var a announcement
		if err := wsjson.Read(ctx, conn, &a); err != nil {
			fatalf("feed read (waiting for %s): %v", ticketID, err)
		}
		if a.TicketID == ticketID {
			if a.PresentCount < 1 {
				fatalf("announcement for %s has present_count=%d", ticketID, a.PresentCount)
			}
			return
		}
		// Another operator's scan; keep waiting for ours.
	}
}

func mustPostJSON(parent context.Context, rawURL, token string, body, out any, stepTimeout time.Duration) int {
	ctx, cancel := context.WithTimeout(parent, stepTimeout)
	defer cancel()

	b, err := json.Marshal(body)
	if err != nil {
		fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(b))
	if err != nil {
		fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fatalf("POST %s: %v", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			fatalf("decode response from %s: %v", rawURL, err)
		}
	}
	return resp.StatusCode
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "feed-smoke: "+format+"\n", args...)
	os.Exit(1)
}
