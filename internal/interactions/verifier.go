package interactions

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
)

// Verifier validates that an inbound webhook was sent by Discord.
type Verifier interface {
	Verify(headers http.Header, body []byte) error
}

var (
	ErrMalformedCredential = errors.New("malformed public key")
	ErrMalformedProof      = errors.New("malformed signature")
	ErrMalformedInput      = errors.New("malformed verification input")
	ErrMissingHeader       = errors.New("signature header is required")
	ErrInvalidSignature    = errors.New("invalid signature")
)

// ParsePublicKey decodes a hex-encoded Ed25519 public key.
func ParsePublicKey(s string) (ed25519.PublicKey, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCredential, err)
	}
	if len(b) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedCredential, ed25519.PublicKeySize, len(b))
	}
	return ed25519.PublicKey(b), nil
}

// ParseSignature decodes a hex-encoded Ed25519 signature.
func ParseSignature(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	if len(b) != ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedProof, ed25519.SignatureSize, len(b))
	}
	return b, nil
}

// SignedMessage returns the exact bytes Discord signs: the timestamp header
// immediately followed by the raw request body.
func SignedMessage(timestamp string, body []byte) []byte {
	msg := make([]byte, 0, len(timestamp)+len(body))
	msg = append(msg, timestamp...)
	return append(msg, body...)
}

// VerifySignature checks sig over message with key.
func VerifySignature(key ed25519.PublicKey, sig, message []byte) error {
	if len(key) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return ErrMalformedInput
	}
	if !ed25519.Verify(key, message, sig) {
		return ErrInvalidSignature
	}
	return nil
}

// SignMessage produces the hex signature Discord would send for timestamp and body.
func SignMessage(key ed25519.PrivateKey, timestamp string, body []byte) string {
	return hex.EncodeToString(ed25519.Sign(key, SignedMessage(timestamp, body)))
}
