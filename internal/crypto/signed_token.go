package crypto

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TokenSigner provides HMAC-signed JSON tokens with optional expiry.
// Sign and Verify form a pure pair: any token that round-trips through
// Sign verifies, and any mutation of a signed token fails verification.
type TokenSigner struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewTokenSigner creates a new token signer. A zero ttl disables expiry.
func NewTokenSigner(signingKey []byte, ttl time.Duration) TokenSigner {
	return TokenSigner{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// tokenData wraps user data with expiry metadata
type tokenData struct {
	Data      json.RawMessage `json:"data"`
	ExpiresAt time.Time       `json:"expires_at,omitempty"`
}

// Sign marshals v to JSON, signs it with HMAC, and returns a base64-encoded token
func (ts *TokenSigner) Sign(v any) (string, error) {
	userData, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("failed to marshal data: %w", err)
	}

	td := tokenData{Data: userData}
	if ts.ttl > 0 {
		td.ExpiresAt = ts.now().Add(ts.ttl)
	}

	jsonData, err := json.Marshal(td)
	if err != nil {
		return "", fmt.Errorf("failed to marshal token data: %w", err)
	}

	signature := SignData(string(jsonData), ts.signingKey)
	return base64.URLEncoding.EncodeToString(jsonData) + "." + signature, nil
}

// Verify validates the signature, checks expiry, and unmarshals the data into v
func (ts *TokenSigner) Verify(token string, v any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return fmt.Errorf("invalid token format")
	}

	jsonData, err := base64.URLEncoding.Strict().DecodeString(parts[0])
	if err != nil {
		return fmt.Errorf("failed to decode token data: %w", err)
	}

	if !ValidateSignedData(string(jsonData), parts[1], ts.signingKey) {
		return fmt.Errorf("invalid signature")
	}

	var td tokenData
	if err := json.Unmarshal(jsonData, &td); err != nil {
		return fmt.Errorf("failed to unmarshal token data: %w", err)
	}

	if !td.ExpiresAt.IsZero() && ts.now().After(td.ExpiresAt) {
		return fmt.Errorf("token expired")
	}

	if err := json.Unmarshal(td.Data, v); err != nil {
		return fmt.Errorf("failed to unmarshal user data: %w", err)
	}

	return nil
}
