package auth

import "errors"

// Public, stable errors for callers.
var (
	ErrConfig             = errors.New("auth config invalid")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
)
