package webhook

import (
	"fmt"
	"net/http"
	"time"
)

// MuxSignatureHeader is the header Mux uses to deliver webhook signatures.
const MuxSignatureHeader = "Mux-Signature"

// MuxVerifier verifies Mux webhook signatures.
type MuxVerifier struct {
	signingSecret []byte
}

// NewMuxVerifier creates a Mux signature verifier. It fails with
// ErrKeyRejected when the configured secret is empty.
func NewMuxVerifier(signingSecret string) (*MuxVerifier, error) {
	secret := []byte(signingSecret)
	if err := ValidateKey(secret); err != nil {
		return nil, fmt.Errorf("mux signing secret: %w", err)
	}
	return &MuxVerifier{signingSecret: secret}, nil
}

// Verify validates the Mux-Signature header against the raw request body.
// The signature timestamp is not checked for freshness.
//
// Malformed headers, undecodable signatures and mismatches all return
// ErrInvalidSignature so callers cannot tell them apart.
func (v *MuxVerifier) Verify(headers http.Header, body []byte, _ time.Time) error {
	signature := headers.Get(MuxSignatureHeader)
	if signature == "" {
		return ErrMissingSignature
	}

	if err := CheckEvent(v.signingSecret, signature, body); err != nil {
		return ErrInvalidSignature
	}
	return nil
}
