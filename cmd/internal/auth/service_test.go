package auth

import (
	"errors"
	"testing"
	"time"

	paseto "aidanwoods.dev/go-paseto"

	"gatepass/cmd/security/credential"
)

func testService(t *testing.T) *Service {
	t.Helper()

	hash, err := credential.Hash("gate-admin-secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	cfg := DefaultConfig()
	cfg.AdminPasswordHash = hash
	cfg.TokenKeyHex = paseto.NewV4SymmetricKey().ExportHex()

	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestService_LoginAndVerify(t *testing.T) {
	svc := testService(t)
	now := time.Now().UTC()

	tok, exp, err := svc.Login("admin", "gate-admin-secret", "gate-1", now)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected exp after now")
	}

	op, err := svc.VerifyToken(tok, now.Add(time.Second))
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if op.Name != "gate-1" {
		t.Fatalf("operator = %q, want gate-1", op.Name)
	}
}

func TestService_LoginDefaultsOperatorName(t *testing.T) {
	svc := testService(t)

	tok, _, err := svc.Login("admin", "gate-admin-secret", "", time.Time{})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	op, err := svc.VerifyToken(tok, time.Now().UTC())
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if op.Name != "admin" {
		t.Fatalf("operator = %q, want admin", op.Name)
	}
}

func TestService_RejectsBadCredentials(t *testing.T) {
	svc := testService(t)
	now := time.Now().UTC()

	if _, _, err := svc.Login("admin", "wrong", "", now); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, _, err := svc.Login("root", "gate-admin-secret", "", now); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong username: %v", err)
	}
}

func TestService_RejectsExpiredToken(t *testing.T) {
	svc := testService(t)
	now := time.Now().UTC()

	tok, _, err := svc.Login("admin", "gate-admin-secret", "gate-1", now)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := svc.VerifyToken(tok, now.Add(13*time.Hour)); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.VerifyToken("v4.local.garbage", now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for garbage, got %v", err)
	}
}
