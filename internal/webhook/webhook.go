// Package webhook authenticates Mux webhook deliveries.
//
// Mux signs each delivery with HMAC-SHA256 over "<timestamp>.<raw body>" and
// sends the result in the Mux-Signature header as "t=<timestamp>,v1=<hex>".
// Everything here is pure and safe for concurrent use.
package webhook

import (
	"errors"
	"net/http"
	"time"
)

// Verifier validates incoming webhook authenticity.
type Verifier interface {
	Verify(headers http.Header, body []byte, now time.Time) error
}

var (
	ErrMissingSignature  = errors.New("signature header is required")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrMalformedHeader   = errors.New("malformed signature header")
	ErrSignatureEncoding = errors.New("signature is not valid hex")
	ErrKeyRejected       = errors.New("signing key rejected")
)
