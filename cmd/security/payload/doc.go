// Package payload implements the authenticated ticket envelope.
//
// A ticket's claims are canonicalized to a fixed-order compact JSON byte
// sequence, signed with HMAC-SHA256, and the signed document is sealed with
// an XChaCha20-Poly1305 AEAD. The resulting envelope is a base64url string
// that is safe to embed in a QR symbol and safe to store verbatim for later
// re-rendering.
//
// The signing key and the cipher key are distinct secrets. Both are
// provisioned out-of-band (environment), never compiled into the binary.
package payload
