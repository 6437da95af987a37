package cookie

import (
	"net/http"
	"time"

	"github.com/taskdock/task-front/internal/crypto"
)

// StateTTL bounds how long a login attempt may sit between the redirect to
// the provider and the callback.
const StateTTL = 10 * time.Minute

type stateClaim struct {
	State string `json:"state"`
}

// StateCourier carries the anti-forgery state value across the login
// round-trip inside a signed cookie.
type StateCourier struct {
	signer crypto.TokenSigner
	secure bool
}

// NewStateCourier builds a courier signing with the given key. secure
// marks issued cookies Secure; pass false for plain-HTTP deployments.
func NewStateCourier(signingKey []byte, secure bool) *StateCourier {
	return &StateCourier{
		signer: crypto.NewTokenSigner(signingKey, StateTTL),
		secure: secure,
	}
}

// SetState stores the state value in a signed cookie on the response.
func (c *StateCourier) SetState(w http.ResponseWriter, state string) error {
	token, err := c.signer.Sign(stateClaim{State: state})
	if err != nil {
		return err
	}
	SetState(w, token, StateTTL, c.secure)
	return nil
}

// GetState returns the state value from the request cookie. A missing,
// tampered, or expired cookie reports absence, not an error: from the
// callback's point of view those are the same condition.
func (c *StateCourier) GetState(r *http.Request) (string, bool) {
	token, err := GetState(r)
	if err != nil || token == "" {
		return "", false
	}
	var claim stateClaim
	if err := c.signer.Verify(token, &claim); err != nil {
		return "", false
	}
	if claim.State == "" {
		return "", false
	}
	return claim.State, true
}

// ClearState removes the state cookie from the client.
func (c *StateCourier) ClearState(w http.ResponseWriter) {
	ClearState(w)
}
