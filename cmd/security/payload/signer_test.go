package payload

import (
	"strings"
	"testing"
)

func testSigningKey() []byte {
	return []byte(strings.Repeat("s", MinSigningKeyBytes))
}

func testCipherKey() []byte {
	return []byte(strings.Repeat("c", CipherKeyBytes))
}

func TestSigner_SignVerify(t *testing.T) {
	s, err := NewSigner(testSigningKey())
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}

	msg := []byte(`{"ticket_id":"AB12CD34"}`)
	tag := s.Sign(msg)
	if tag == "" {
		t.Fatalf("empty tag")
	}
	if !s.Verify(msg, tag) {
		t.Fatalf("expected tag to verify")
	}
	if s.Verify([]byte(`{"ticket_id":"AB12CD35"}`), tag) {
		t.Fatalf("tag verified against a different message")
	}
	if s.Verify(msg, "not-hex") {
		t.Fatalf("non-hex tag verified")
	}
}

func TestSigner_RejectsShortKey(t *testing.T) {
	if _, err := NewSigner([]byte("short")); err != ErrConfig {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestCipher_RejectsWrongKeyLength(t *testing.T) {
	if _, err := NewCipher([]byte("too-short")); err != ErrConfig {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestCipher_RoundTrip(t *testing.T) {
	c, err := NewCipher(testCipherKey())
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	plain := []byte("sealed content")
	env, err := c.Encrypt(plain)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, err := c.Decrypt(env)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(got) != string(plain) {
		t.Fatalf("round trip mismatch: %q", got)
	}
}

func TestCipher_DecryptGarbage(t *testing.T) {
	c, err := NewCipher(testCipherKey())
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}

	for _, env := range []string{"", "!!!not-base64!!!", "dG9vLXNob3J0"} {
		if _, err := c.Decrypt(env); err != ErrCorrupt {
			t.Fatalf("Decrypt(%q): expected ErrCorrupt, got %v", env, err)
		}
	}
}
