package payload

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// MinSigningKeyBytes is the minimum accepted HMAC key length.
// 32 bytes is the recommended minimum for HMAC-SHA256.
const MinSigningKeyBytes = 32

// Signer produces and verifies HMAC-SHA256 tags over canonical claim bytes.
type Signer struct {
	key []byte
}

// NewSigner constructs a Signer. The key is used as raw bytes and must be at
// least MinSigningKeyBytes long.
func NewSigner(key []byte) (*Signer, error) {
	if len(key) < MinSigningKeyBytes {
		return nil, ErrConfig
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Signer{key: k}, nil
}

// Sign returns the hex-encoded HMAC-SHA256 tag of message.
func (s *Signer) Sign(message []byte) string {
	m := hmac.New(sha256.New, s.key)
	_, _ = m.Write(message)
	return hex.EncodeToString(m.Sum(nil))
}

// Verify reports whether tag is a valid signature of message.
// Comparison is constant-time.
func (s *Signer) Verify(message []byte, tag string) bool {
	got, err := hex.DecodeString(tag)
	if err != nil {
		return false
	}
	m := hmac.New(sha256.New, s.key)
	_, _ = m.Write(message)
	return hmac.Equal(m.Sum(nil), got)
}
