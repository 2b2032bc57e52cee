// Package credential hashes and verifies the shared admin credential with
// Argon2id, encoded as a PHC string:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
//
// The service only ever stores the encoded hash (env-provisioned); the plain
// credential exists nowhere at rest.
package credential

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// ErrInvalidHash marks a malformed or unsupported encoded hash.
var ErrInvalidHash = errors.New("invalid credential hash")

const argon2Version = 19 // argon2.Version (0x13)

type params struct {
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

func defaultParams() params {
	return params{
		memoryKiB:   64 * 1024,
		iterations:  3,
		parallelism: 1,
		saltLength:  16,
		keyLength:   32,
	}
}

// Hash returns the PHC-encoded Argon2id hash of password.
func Hash(password string) (string, error) {
	if len(password) < 8 {
		return "", errors.New("credential too short")
	}
	p := defaultParams()

	salt := make([]byte, p.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, p.iterations, p.memoryKiB, p.parallelism, p.keyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		p.memoryKiB,
		p.iterations,
		p.parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify checks password against an encoded hash in constant time.
// (true, nil) on match, (false, nil) on mismatch, (false, ErrInvalidHash) on
// a hash we refuse to process.
func Verify(encodedHash, password string) (bool, error) {
	p, salt, expected, err := decode(encodedHash)
	if err != nil {
		return false, err
	}

	key := argon2.IDKey([]byte(password), salt, p.iterations, p.memoryKiB, p.parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}

func decode(encoded string) (params, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != "v=19" {
		return params{}, nil, nil, ErrInvalidHash
	}

	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return params{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return params{}, nil, nil, ErrInvalidHash
	}
	// Anti-DoS boundary: refuse attacker-scale parameters.
	limits := defaultParams()
	if mem > limits.memoryKiB*2 || it > limits.iterations*2 {
		return params{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < 8 || len(salt) > 64 {
		return params{}, nil, nil, ErrInvalidHash
	}
	hash, err := b64.DecodeString(parts[5])
	if err != nil || len(hash) < 16 || len(hash) > 128 {
		return params{}, nil, nil, ErrInvalidHash
	}

	return params{
		memoryKiB:   mem,
		iterations:  it,
		parallelism: uint8(par),
	}, salt, hash, nil
}
