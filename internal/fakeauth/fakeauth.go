// Package fakeauth is the built-in stand-in for the authentication service,
// used when mock mode is enabled. It keeps just enough state in memory to
// drive a full login round-trip deterministically: issued states are
// one-time, minted session tokens validate until logout or expiry.
package fakeauth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskdock/task-front/internal/authrpc"
	"github.com/taskdock/task-front/internal/crypto"
	"github.com/taskdock/task-front/internal/log"
	"github.com/taskdock/task-front/internal/provider"
)

const (
	stateTTL   = 10 * time.Minute
	sessionTTL = 7 * 24 * time.Hour
)

// Service implements authrpc.AuthService entirely in memory.
type Service struct {
	callbackBaseURL string
	states          *cache.Cache
	sessions        *cache.Cache
}

var _ authrpc.AuthService = (*Service)(nil)

// New builds a fake service. callbackBaseURL is the front's own base URL,
// used to synthesize redirect URIs in the authorization URL.
func New(callbackBaseURL string) *Service {
	return &Service{
		callbackBaseURL: callbackBaseURL,
		states:          cache.New(stateTTL, 5*time.Minute),
		sessions:        cache.New(sessionTTL, time.Hour),
	}
}

// GetAuthorizationParams mints a fresh one-time state and synthesizes a
// realistic provider authorization URL carrying it.
func (s *Service) GetAuthorizationParams(ctx context.Context, p provider.Provider, clientID string) (*authrpc.AuthorizationParams, error) {
	state, err := crypto.GenerateSecureToken()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "generating state: %v", err)
	}
	s.states.Set(state, string(p), stateTTL)

	conf := oauth2.Config{
		ClientID:    clientID,
		Endpoint:    endpointFor(p),
		RedirectURL: s.callbackBaseURL + "/auth/callback/" + string(p),
		Scopes:      []string{"openid", "email", "profile"},
	}
	return &authrpc.AuthorizationParams{
		AuthorizationURL: conf.AuthCodeURL(state),
		State:            state,
	}, nil
}

// ExchangeCode consumes the state and mints a session. The code itself is
// not checked against provider records; any non-empty code paired with a
// known state succeeds.
func (s *Service) ExchangeCode(ctx context.Context, p provider.Provider, code, state string) (*authrpc.ExchangeResult, error) {
	if code == "" {
		return nil, status.Error(codes.InvalidArgument, "authorization code is required")
	}
	issuedFor, found := s.states.Get(state)
	if !found {
		return nil, status.Error(codes.Unauthenticated, "unknown or expired authorization state")
	}
	s.states.Delete(state)
	if issuedFor != string(p) {
		return nil, status.Error(codes.Unauthenticated, "authorization state issued for a different provider")
	}

	token := uuid.NewString()
	userID := "user-" + uuid.NewString()
	s.sessions.Set(token, userID, sessionTTL)

	log.LogDebugWithFields("fakeauth", "Session minted", map[string]any{
		"provider": string(p),
		"userId":   userID,
	})
	return &authrpc.ExchangeResult{SessionToken: token}, nil
}

// ValidateSession resolves a token to its user, or Unauthenticated.
func (s *Service) ValidateSession(ctx context.Context, sessionToken string) (*authrpc.ValidateResult, error) {
	userID, found := s.sessions.Get(sessionToken)
	if !found {
		return nil, status.Error(codes.Unauthenticated, "session token invalid")
	}
	return &authrpc.ValidateResult{UserID: userID.(string)}, nil
}

// Logout revokes a token. Revoking an unknown token still succeeds so the
// operation is idempotent from the caller's side.
func (s *Service) Logout(ctx context.Context, sessionToken string) (*authrpc.LogoutResult, error) {
	s.sessions.Delete(sessionToken)
	return &authrpc.LogoutResult{Success: true}, nil
}

func endpointFor(p provider.Provider) oauth2.Endpoint {
	switch p {
	case provider.Google:
		return google.Endpoint
	default:
		return oauth2.Endpoint{
			AuthURL:  "https://idp.invalid/authorize",
			TokenURL: "https://idp.invalid/token",
		}
	}
}
