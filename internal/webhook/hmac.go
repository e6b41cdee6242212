package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
)

// ValidateKey reports whether key is acceptable as a configured signing
// secret. HMAC itself accepts keys of any length, including zero; an empty
// secret is rejected here so the misconfiguration surfaces at startup.
func ValidateKey(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("%w: key is empty", ErrKeyRejected)
	}
	return nil
}

// Sign returns the 32-byte HMAC-SHA256 digest of message under key.
// Any key length is accepted.
func Sign(key, message []byte) ([]byte, error) {
	mac := hmac.New(sha256.New, key)
	if _, err := mac.Write(message); err != nil {
		return nil, fmt.Errorf("writing hmac message: %w", err)
	}
	return mac.Sum(nil), nil
}

// Verify recomputes the digest of message and compares it to signature in
// constant time. Length and every byte must match.
//
// A non-nil error is never returned for a signature mismatch.
func Verify(key, message, signature []byte) (bool, error) {
	expected, err := Sign(key, message)
	if err != nil {
		return false, err
	}
	return hmac.Equal(expected, signature), nil
}
