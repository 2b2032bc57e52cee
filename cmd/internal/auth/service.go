// Package auth exchanges the shared admin credential for a short-lived
// operator token (PASETO v4.local) and verifies that token on every
// protected request. Operator identity is a display name carried in the
// token; the core stores it verbatim as scanned_by.
package auth

import (
	"strings"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"gatepass/cmd/security/credential"
)

// Operator is the verified identity attached to a request.
type Operator struct {
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Service issues and verifies operator tokens.
type Service struct {
	cfg Config
	key paseto.V4SymmetricKey
}

// NewService constructs a Service, validating the configured key and hash.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.AdminUsername) == "" || strings.TrimSpace(cfg.AdminPasswordHash) == "" {
		return nil, ErrConfig
	}
	if cfg.Issuer == "" || cfg.TokenTTL <= 0 {
		return nil, ErrConfig
	}
	key, err := paseto.V4SymmetricKeyFromHex(strings.TrimSpace(cfg.TokenKeyHex))
	if err != nil {
		return nil, ErrConfig
	}
	return &Service{cfg: cfg, key: key}, nil
}

// Login verifies the shared credential and issues an operator token.
// operatorName is the display identity for this session; it defaults to the
// admin username.
func (s *Service) Login(username, password, operatorName string, now time.Time) (string, time.Time, error) {
	if s == nil {
		return "", time.Time{}, ErrConfig
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if strings.TrimSpace(username) != s.cfg.AdminUsername {
		// Burn a verification anyway so unknown usernames cost the same
		// as wrong passwords.
		_, _ = credential.Verify(s.cfg.AdminPasswordHash, password)
		return "", time.Time{}, ErrInvalidCredentials
	}
	ok, err := credential.Verify(s.cfg.AdminPasswordHash, password)
	if err != nil || !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}

	operatorName = strings.TrimSpace(operatorName)
	if operatorName == "" {
		operatorName = s.cfg.AdminUsername
	}

	exp := now.Add(s.cfg.TokenTTL)
	tok := paseto.NewToken()
	tok.SetIssuer(s.cfg.Issuer)
	tok.SetIssuedAt(now)
	tok.SetNotBefore(now)
	tok.SetExpiration(exp)
	_ = tok.Set("operator", operatorName)

	return tok.V4Encrypt(s.key, nil), exp, nil
}

// VerifyToken validates an operator token and returns its identity.
func (s *Service) VerifyToken(token string, now time.Time) (Operator, error) {
	if s == nil {
		return Operator{}, ErrConfig
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	validNow := now.Add(s.cfg.ClockSkew)

	// Fresh parser per call so rules never accumulate across verifies.
	p := paseto.NewParser()
	p.AddRule(paseto.IssuedBy(s.cfg.Issuer))
	p.AddRule(paseto.NotExpired())
	p.AddRule(paseto.ValidAt(validNow))

	parsed, err := p.ParseV4Local(s.key, strings.TrimSpace(token), nil)
	if err != nil {
		return Operator{}, ErrInvalidToken
	}

	name, err := parsed.GetString("operator")
	if err != nil || name == "" {
		return Operator{}, ErrInvalidToken
	}
	iat, _ := parsed.GetIssuedAt()
	exp, _ := parsed.GetExpiration()

	return Operator{Name: name, IssuedAt: iat, ExpiresAt: exp}, nil
}
