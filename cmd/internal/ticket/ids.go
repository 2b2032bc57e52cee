package ticket

import (
	"crypto/rand"
	"math/big"
)

// Ticket IDs are short enough to read over a shoulder at the gate but drawn
// from crypto/rand: 8 characters over a 36-symbol alphabet is ~41 bits, so a
// collision within one event is a reportable anomaly, not an expected case.
const (
	ticketIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	ticketIDLength   = 8

	userIDPrefix       = "HF26"
	userIDRandomLength = 6
)

// NewTicketID returns a fresh 8-character uppercase alphanumeric ticket ID.
func NewTicketID() (string, error) {
	return randomString(ticketIDLength)
}

// NewUserID returns a fresh team code of the form HF26XXXXXX.
func NewUserID() (string, error) {
	s, err := randomString(userIDRandomLength)
	if err != nil {
		return "", err
	}
	return userIDPrefix + s, nil
}

func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(ticketIDAlphabet)))
	b := make([]byte, n)
	for i := range b {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		b[i] = ticketIDAlphabet[v.Int64()]
	}
	return string(b), nil
}
