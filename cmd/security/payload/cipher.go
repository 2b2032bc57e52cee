package payload

import (
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/crypto/chacha20poly1305"
)

// CipherKeyBytes is the exact key length required by XChaCha20-Poly1305.
const CipherKeyBytes = chacha20poly1305.KeySize

// Cipher seals and opens envelope bytes with XChaCha20-Poly1305.
//
// The 24-byte random nonce is prepended to the ciphertext and the whole
// thing is base64url-encoded, so an envelope is self-contained text.
type Cipher struct {
	aead cipher.AEAD
}

// NewCipher constructs a Cipher from a 32-byte key.
func NewCipher(key []byte) (*Cipher, error) {
	if len(key) != CipherKeyBytes {
		return nil, ErrConfig
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrConfig
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext and returns the text-safe envelope.
func (c *Cipher) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope. Any structural or authentication failure is
// reported as ErrCorrupt; the caller learns nothing about which check failed.
func (c *Cipher) Decrypt(envelope string) ([]byte, error) {
	raw, err := base64.RawURLEncoding.DecodeString(envelope)
	if err != nil {
		return nil, ErrCorrupt
	}
	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return nil, ErrCorrupt
	}
	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, ErrCorrupt
	}
	return plaintext, nil
}
