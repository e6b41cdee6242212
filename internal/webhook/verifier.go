package webhook

import (
	"encoding/hex"
	"fmt"
)

// VerifyEvent reports whether header carries a valid signature of rawBody
// under secret. Malformed headers and mismatched signatures both yield false.
func VerifyEvent(secret []byte, header string, rawBody []byte) bool {
	return CheckEvent(secret, header, rawBody) == nil
}

// CheckEvent runs the same verification as VerifyEvent but reports why it
// failed: ErrMalformedHeader, ErrSignatureEncoding or ErrInvalidSignature.
func CheckEvent(secret []byte, header string, rawBody []byte) error {
	parsed, err := ParseSignatureHeader(header)
	if err != nil {
		return err
	}

	signature, err := hex.DecodeString(parsed.Signature)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureEncoding, err)
	}

	ok, err := Verify(secret, signedPayload(parsed.Timestamp, rawBody), signature)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidSignature
	}
	return nil
}

// SignEvent returns a Mux-Signature header value for rawBody signed at timestamp.
func SignEvent(secret []byte, timestamp string, rawBody []byte) (string, error) {
	digest, err := Sign(secret, signedPayload(timestamp, rawBody))
	if err != nil {
		return "", err
	}
	return SignatureHeader{
		Timestamp: timestamp,
		Signature: hex.EncodeToString(digest),
	}.String(), nil
}

// signedPayload builds timestamp + "." + rawBody byte for byte.
func signedPayload(timestamp string, rawBody []byte) []byte {
	payload := make([]byte, 0, len(timestamp)+1+len(rawBody))
	payload = append(payload, timestamp...)
	payload = append(payload, '.')
	return append(payload, rawBody...)
}
