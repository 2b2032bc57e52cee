package app

import (
	"encoding/hex"
	"errors"

	"gatepass/cmd/security/payload"
)

// ValidateSecurityConfig enforces the startup key policy.
//
// Fail-fast is intentional: a gate that silently runs with weak or missing
// keys would mint forgeable tickets.
func ValidateSecurityConfig(cfg Config) error {
	if len(cfg.SigningKey) < payload.MinSigningKeyBytes {
		return errors.New("security policy: GATEPASS_SIGNING_KEY is missing or shorter than 32 bytes")
	}

	cipherKey, err := hex.DecodeString(cfg.CipherKeyHex)
	if err != nil || len(cipherKey) != payload.CipherKeyBytes {
		return errors.New("security policy: GATEPASS_CIPHER_KEY must be 64 hex characters (32 bytes)")
	}

	tokenKey, err := hex.DecodeString(cfg.TokenKeyHex)
	if err != nil || len(tokenKey) != 32 {
		return errors.New("security policy: GATEPASS_TOKEN_KEY must be 64 hex characters (32 bytes)")
	}

	if cfg.AdminPasswordHash == "" && cfg.AdminPassword == "" {
		return errors.New("security policy: set GATEPASS_ADMIN_PASSWORD_HASH (or GATEPASS_ADMIN_PASSWORD for dev)")
	}
	if cfg.AdminPasswordHash != "" && cfg.AdminPassword != "" {
		return errors.New("security policy: GATEPASS_ADMIN_PASSWORD_HASH and GATEPASS_ADMIN_PASSWORD are mutually exclusive")
	}

	return nil
}
