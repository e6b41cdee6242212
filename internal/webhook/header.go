package webhook

import (
	"fmt"
	"strings"
)

const (
	timestampPrefix = "t="
	signaturePrefix = "v1="
)

// SignatureHeader is a parsed Mux-Signature value.
type SignatureHeader struct {
	// Timestamp is kept as the raw token; it is signed, never interpreted.
	Timestamp string
	// Signature is the hex-encoded HMAC exactly as sent.
	Signature string
}

// String formats h back into "t=<timestamp>,v1=<signature>".
func (h SignatureHeader) String() string {
	return timestampPrefix + h.Timestamp + "," + signaturePrefix + h.Signature
}

// ParseSignatureHeader parses a header of the exact form
//
//	t=ALNUM+,v1=HEXDIG+
//
// The whole input must match. Field order is fixed and no whitespace is
// allowed anywhere. On failure the returned error wraps ErrMalformedHeader
// and the SignatureHeader is the zero value.
func ParseSignatureHeader(header string) (SignatureHeader, error) {
	rest, ok := strings.CutPrefix(header, timestampPrefix)
	if !ok {
		return SignatureHeader{}, fmt.Errorf("%w: missing %q prefix", ErrMalformedHeader, timestampPrefix)
	}

	n := scan(rest, isAlphanumeric)
	if n == 0 {
		return SignatureHeader{}, fmt.Errorf("%w: empty timestamp", ErrMalformedHeader)
	}
	timestamp := rest[:n]
	rest = rest[n:]

	rest, ok = strings.CutPrefix(rest, ",")
	if !ok {
		return SignatureHeader{}, fmt.Errorf("%w: expected ',' after timestamp", ErrMalformedHeader)
	}
	rest, ok = strings.CutPrefix(rest, signaturePrefix)
	if !ok {
		return SignatureHeader{}, fmt.Errorf("%w: missing %q prefix", ErrMalformedHeader, signaturePrefix)
	}

	n = scan(rest, isHexDigit)
	if n == 0 {
		return SignatureHeader{}, fmt.Errorf("%w: empty signature", ErrMalformedHeader)
	}
	if n != len(rest) {
		return SignatureHeader{}, fmt.Errorf("%w: unexpected trailing data", ErrMalformedHeader)
	}

	return SignatureHeader{Timestamp: timestamp, Signature: rest}, nil
}

// scan returns the length of the longest prefix of s whose bytes satisfy fn.
func scan(s string, fn func(byte) bool) int {
	i := 0
	for i < len(s) && fn(s[i]) {
		i++
	}
	return i
}

func isAlphanumeric(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
