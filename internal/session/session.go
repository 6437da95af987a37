// Package session manages the signed session cookie. The server itself is
// stateless: the cookie carries an opaque token whose validity is decided
// by the authentication service on every check.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskdock/task-front/internal/authrpc"
	"github.com/taskdock/task-front/internal/cookie"
	"github.com/taskdock/task-front/internal/crypto"
	"github.com/taskdock/task-front/internal/log"
)

// TTL is the session cookie lifetime.
const TTL = 7 * 24 * time.Hour

// ErrUnauthorized reports a missing or invalid session. Callers redirect
// to the login page.
var ErrUnauthorized = errors.New("no valid session")

type sessionClaim struct {
	SessionToken string `json:"sessionToken"`
}

// Store issues, reads, and destroys session cookies, and checks token
// validity against the authentication service.
type Store struct {
	signer crypto.TokenSigner
	auth   authrpc.AuthService
	secure bool
	group  singleflight.Group
}

// NewStore builds a store signing cookies with signingKey and validating
// tokens against auth. secure marks issued cookies Secure and should be
// true exactly when the deployment is served over https.
func NewStore(signingKey []byte, auth authrpc.AuthService, secure bool) *Store {
	return &Store{
		signer: crypto.NewTokenSigner(signingKey, TTL),
		auth:   auth,
		secure: secure,
	}
}

// Create writes a signed session cookie carrying the token.
func (s *Store) Create(w http.ResponseWriter, sessionToken string) error {
	signed, err := s.signer.Sign(sessionClaim{SessionToken: sessionToken})
	if err != nil {
		return fmt.Errorf("signing session cookie: %w", err)
	}
	cookie.SetSession(w, signed, TTL, s.secure)
	return nil
}

// Read extracts the session token from the request cookie. Tamper and
// expiry both read as absence.
func (s *Store) Read(r *http.Request) (string, bool) {
	raw, err := cookie.GetSession(r)
	if err != nil || raw == "" {
		return "", false
	}
	var claim sessionClaim
	if err := s.signer.Verify(raw, &claim); err != nil {
		return "", false
	}
	if claim.SessionToken == "" {
		return "", false
	}
	return claim.SessionToken, true
}

// Destroy clears the session cookie on the response.
func (s *Store) Destroy(w http.ResponseWriter) {
	cookie.ClearSession(w)
}

// Validate resolves the request's session token to a user id via the
// authentication service. Concurrent validations of the same token are
// deduplicated into one upstream call. Returns ErrUnauthorized for a
// missing, tampered, or remotely rejected session.
func (s *Store) Validate(ctx context.Context, r *http.Request) (userID, sessionToken string, err error) {
	token, ok := s.Read(r)
	if !ok {
		return "", "", ErrUnauthorized
	}

	v, err, _ := s.group.Do(token, func() (any, error) {
		// The flight is shared by every request carrying this token, so
		// it must outlive the first caller. The client applies its own
		// per-call timeout.
		return s.auth.ValidateSession(context.WithoutCancel(ctx), token)
	})
	if err != nil {
		if status.Code(err) == codes.Unauthenticated {
			return "", "", ErrUnauthorized
		}
		return "", "", fmt.Errorf("validating session: %w", err)
	}
	return v.(*authrpc.ValidateResult).UserID, token, nil
}

// Logout destroys the cookie and best-effort revokes the token upstream.
// It never fails from the caller's perspective; a second logout with the
// same destroyed session behaves like the first.
func (s *Store) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	if token, ok := s.Read(r); ok {
		if _, err := s.auth.Logout(ctx, token); err != nil {
			log.LogWarnWithFields("session", "Upstream logout failed", map[string]any{
				"error": err.Error(),
			})
		}
	}
	s.Destroy(w)
}
