package payload

import (
	"encoding/base64"
	"errors"
	"testing"
)

func testCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSigningKey(), testCipherKey())
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return c
}

func TestCodec_RoundTrip(t *testing.T) {
	c := testCodec(t)

	in := Claims{
		TicketID: "A1B2C3D4",
		UserID:   "HF26XYZ123",
		TeamName: "Alpha",
		IssuedAt: 1766000000,
	}
	env, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if env == "" {
		t.Fatalf("empty envelope")
	}

	out, err := c.Decode(env)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out.Signature == "" {
		t.Fatalf("decoded claims missing audit signature")
	}
	out.Signature = ""
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestCodec_EnvelopesDiffer(t *testing.T) {
	// Random nonces mean two encodings of the same claims are distinct
	// envelopes that both decode to the same claims.
	c := testCodec(t)
	in := Claims{TicketID: "A1B2C3D4", UserID: "HF26XYZ123", TeamName: "Alpha", IssuedAt: 1}

	a, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	b, err := c.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if a == b {
		t.Fatalf("expected distinct envelopes")
	}
}

func TestCodec_TamperSensitivity(t *testing.T) {
	c := testCodec(t)

	env, err := c.Encode(Claims{TicketID: "A1B2C3D4", UserID: "HF26XYZ123", TeamName: "Alpha", IssuedAt: 1766000000})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	raw, err := base64.RawURLEncoding.DecodeString(env)
	if err != nil {
		t.Fatalf("decode envelope: %v", err)
	}

	// Flip every byte position, one at a time. AEAD authentication must
	// reject all of them.
	for i := range raw {
		mutated := append([]byte(nil), raw...)
		mutated[i] ^= 0x01
		_, err := c.Decode(base64.RawURLEncoding.EncodeToString(mutated))
		if !IsDecodeError(err) {
			t.Fatalf("byte %d: expected decode error, got %v", i, err)
		}
	}
}

func TestCodec_ForgedSignature(t *testing.T) {
	// A payload sealed with the right cipher key but signed with the wrong
	// HMAC key must be rejected as tampered, not accepted.
	signer, err := NewSigner([]byte("attacker-controlled-signing-key!"))
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	cipher, err := NewCipher(testCipherKey())
	if err != nil {
		t.Fatalf("NewCipher: %v", err)
	}
	forged := &Codec{signer: signer, cipher: cipher}

	env, err := forged.Encode(Claims{TicketID: "A1B2C3D4", UserID: "HF26EVIL00", TeamName: "Alpha", IssuedAt: 1})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	c := testCodec(t)
	if _, err := c.Decode(env); !errors.Is(err, ErrTampered) {
		t.Fatalf("expected ErrTampered, got %v", err)
	}
}

func TestCodec_MalformedPlaintext(t *testing.T) {
	c := testCodec(t)

	env, err := c.cipher.Encrypt([]byte("this is not json"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := c.Decode(env); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
}

func TestCodec_MissingSignatureField(t *testing.T) {
	c := testCodec(t)

	env, err := c.cipher.Encrypt([]byte(`{"ticket_id":"A1B2C3D4","user_id":"HF26XYZ123","team_name":"Alpha","issued_at":1}`))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := c.Decode(env); !errors.Is(err, ErrTampered) {
		t.Fatalf("expected ErrTampered, got %v", err)
	}
}

func TestCodec_IncompleteClaims(t *testing.T) {
	// Validly signed but missing required fields is still a rejection.
	c := testCodec(t)

	env, err := c.Encode(Claims{TeamName: "Alpha", IssuedAt: 1766000000})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := c.Decode(env); !errors.Is(err, ErrIncompleteClaims) {
		t.Fatalf("expected ErrIncompleteClaims, got %v", err)
	}
}

func TestCodec_CorruptEnvelope(t *testing.T) {
	c := testCodec(t)
	if _, err := c.Decode("@@@@"); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
