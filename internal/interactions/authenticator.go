package interactions

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const (
	SignatureHeader = "X-Signature-Ed25519"
	TimestampHeader = "X-Signature-Timestamp"
)

// Authenticator verifies Discord interaction signatures against the
// application's public key. It is immutable and safe for concurrent use.
type Authenticator struct {
	key ed25519.PublicKey
}

// NewAuthenticator creates an authenticator for key.
func NewAuthenticator(key ed25519.PublicKey) (*Authenticator, error) {
	if len(key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrMalformedCredential, ed25519.PublicKeySize, len(key))
	}
	owned := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(owned, key)
	return &Authenticator{key: owned}, nil
}

// NewAuthenticatorFromHex creates an authenticator from a hex-encoded public key.
func NewAuthenticatorFromHex(publicKey string) (*Authenticator, error) {
	key, err := ParsePublicKey(publicKey)
	if err != nil {
		return nil, err
	}
	return NewAuthenticator(key)
}

// Verify checks the signature headers against the raw body as received.
func (a *Authenticator) Verify(headers http.Header, body []byte) error {
	signature := headers.Get(SignatureHeader)
	if signature == "" {
		return fmt.Errorf("%w: %s", ErrMissingHeader, SignatureHeader)
	}
	timestamp := headers.Get(TimestampHeader)
	if timestamp == "" {
		return fmt.Errorf("%w: %s", ErrMissingHeader, TimestampHeader)
	}

	sig, err := ParseSignature(signature)
	if err != nil {
		return err
	}
	return VerifySignature(a.key, sig, SignedMessage(timestamp, body))
}

// SignedAt parses the signature timestamp header. Authentication does not
// enforce freshness; callers that want a replay window can use this.
func SignedAt(headers http.Header) (time.Time, error) {
	timestamp := headers.Get(TimestampHeader)
	if timestamp == "" {
		return time.Time{}, fmt.Errorf("%w: %s", ErrMissingHeader, TimestampHeader)
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing signature timestamp: %w", err)
	}
	return time.Unix(ts, 0), nil
}

// IsAuthError reports whether err belongs to the authentication failure family.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrMissingHeader) ||
		errors.Is(err, ErrMalformedProof) ||
		errors.Is(err, ErrMalformedCredential) ||
		errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrInvalidSignature)
}

// FailureReason maps an authentication or decode error to a stable label
// for logs and metrics.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingHeader):
		return "missing_header"
	case errors.Is(err, ErrMalformedProof):
		return "malformed_proof"
	case errors.Is(err, ErrMalformedCredential):
		return "malformed_credential"
	case errors.Is(err, ErrMalformedInput):
		return "malformed_input"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrInvalidPayload):
		return "invalid_payload"
	case errors.Is(err, ErrMissingDiscriminator):
		return "missing_discriminator"
	case errors.Is(err, ErrUnknownInteractionType):
		return "unknown_interaction_type"
	case errors.Is(err, ErrSchemaMismatch):
		return "schema_mismatch"
	default:
		return "other"
	}
}
