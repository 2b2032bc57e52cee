package auth

import "time"

// Config holds the single-operator authentication settings.
//
// There is exactly one shared admin credential; what varies per session is
// the operator display name, which is echoed into every attendance record's
// scanned_by field.
type Config struct {
	// AdminUsername is the shared login name.
	AdminUsername string

	// AdminPasswordHash is the Argon2id PHC hash of the shared credential.
	// The plain credential is never configured anywhere.
	AdminPasswordHash string

	// TokenKeyHex is the hex-encoded 32-byte PASETO v4.local key.
	TokenKeyHex string

	// Issuer is the value set in the "iss" claim of operator tokens.
	Issuer string

	// TokenTTL defines the lifetime of operator tokens.
	TokenTTL time.Duration

	// ClockSkew is the allowed time skew during token validation.
	ClockSkew time.Duration
}

// DefaultConfig returns defaults; keys and hashes always come from outside.
func DefaultConfig() Config {
	return Config{
		AdminUsername: "admin",
		Issuer:        "gatepass",
		TokenTTL:      12 * time.Hour,
		ClockSkew:     30 * time.Second,
	}
}
