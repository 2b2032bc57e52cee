package payload

import "errors"

// Public, stable errors for callers.
//
// Every decode failure maps to exactly one of these. Callers that face the
// outside world must collapse all of them into a single generic "invalid"
// answer; the distinction exists for internal logging and tests only.
var (
	// ErrCorrupt means the envelope could not be decrypted: bad base64,
	// truncated data, or an AEAD authentication failure.
	ErrCorrupt = errors.New("payload corrupt")

	// ErrMalformed means the decrypted plaintext is not a claims document.
	ErrMalformed = errors.New("payload malformed")

	// ErrTampered means the claims signature did not verify.
	ErrTampered = errors.New("payload signature mismatch")

	// ErrIncompleteClaims means the signature verified but required claim
	// fields are missing. A validly-signed-but-incomplete payload is still
	// rejected.
	ErrIncompleteClaims = errors.New("payload claims incomplete")

	// ErrConfig indicates an unusable signing or cipher key.
	ErrConfig = errors.New("payload key configuration invalid")
)

// IsDecodeError reports whether err is one of the decode failure classes.
func IsDecodeError(err error) bool {
	return errors.Is(err, ErrCorrupt) ||
		errors.Is(err, ErrMalformed) ||
		errors.Is(err, ErrTampered) ||
		errors.Is(err, ErrIncompleteClaims)
}
