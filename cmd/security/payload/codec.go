package payload

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Claims is the signed content of a ticket envelope.
//
// Canonical form is the compact JSON encoding of this struct in declared
// field order. The signature is always computed over the canonical encoding
// with the signature field absent; any reordering or whitespace change makes
// it unverifiable.
type Claims struct {
	TicketID  string `json:"ticket_id"`
	UserID    string `json:"user_id"`
	TeamName  string `json:"team_name"`
	IssuedAt  int64  `json:"issued_at"`
	Signature string `json:"signature,omitempty"`
}

// Codec turns claims into sealed envelopes and back.
type Codec struct {
	signer *Signer
	cipher *Cipher
}

// NewCodec constructs a Codec from logically distinct signing and cipher keys.
func NewCodec(signingKey, cipherKey []byte) (*Codec, error) {
	signer, err := NewSigner(signingKey)
	if err != nil {
		return nil, err
	}
	cipher, err := NewCipher(cipherKey)
	if err != nil {
		return nil, err
	}
	return &Codec{signer: signer, cipher: cipher}, nil
}

// Encode canonicalizes claims, signs them, and seals the signed document.
// Any signature already present on the input is discarded and recomputed.
func (c *Codec) Encode(claims Claims) (string, error) {
	claims.Signature = ""
	canonical, err := canonicalize(claims)
	if err != nil {
		return "", err
	}

	claims.Signature = c.signer.Sign(canonical)
	signed, err := canonicalize(claims)
	if err != nil {
		return "", err
	}

	return c.cipher.Encrypt(signed)
}

// Decode opens an envelope and returns the verified claims, signature
// retained for audit.
//
// Failure modes, in order of detection: ErrCorrupt (decryption),
// ErrMalformed (parsing), ErrTampered (signature), ErrIncompleteClaims
// (required fields missing after a valid signature). The decoder fails
// closed: no field is trusted before the signature verifies.
func (c *Codec) Decode(envelope string) (Claims, error) {
	plaintext, err := c.cipher.Decrypt(strings.TrimSpace(envelope))
	if err != nil {
		return Claims{}, err
	}

	var claims Claims
	dec := json.NewDecoder(bytes.NewReader(plaintext))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&claims); err != nil {
		return Claims{}, ErrMalformed
	}

	sig := claims.Signature
	if sig == "" {
		return Claims{}, ErrTampered
	}
	claims.Signature = ""
	canonical, err := canonicalize(claims)
	if err != nil {
		return Claims{}, ErrMalformed
	}
	if !c.signer.Verify(canonical, sig) {
		return Claims{}, ErrTampered
	}
	claims.Signature = sig

	if claims.TicketID == "" || claims.UserID == "" {
		return Claims{}, ErrIncompleteClaims
	}
	return claims, nil
}

// canonicalize produces the deterministic byte sequence that signatures are
// computed over: compact JSON, declared field order, no trailing newline.
func canonicalize(claims Claims) ([]byte, error) {
	b, err := json.Marshal(claims)
	if err != nil {
		return nil, err
	}
	return b, nil
}
