// Package authrpc is the network boundary to the authentication service.
// The AuthService interface is what the rest of the process programs
// against; the HTTP client and the test-mode transport both implement it.
package authrpc

import (
	"context"

	"github.com/taskdock/task-front/internal/provider"
)

// Service and method identifiers, used for mock registration lookup keys
// and request routing.
const (
	ServiceName = "Auth"

	MethodGetAuthorizationParams = "GetAuthorizationParams"
	MethodExchangeCode           = "ExchangeCode"
	MethodValidateSession        = "ValidateSession"
	MethodLogout                 = "Logout"
)

// AuthorizationParams is the authentication service's answer to a flow
// initiation: where to send the user, and the state value proving origin.
type AuthorizationParams struct {
	AuthorizationURL string `json:"authorizationUrl"`
	State            string `json:"state"`
}

// ExchangeResult carries the session token minted for a valid
// (provider, code, state) tuple.
type ExchangeResult struct {
	SessionToken string `json:"sessionToken"`
}

// ValidateResult reports who a session token belongs to.
type ValidateResult struct {
	UserID string `json:"userId"`
}

// LogoutResult acknowledges a revocation request.
type LogoutResult struct {
	Success bool `json:"success"`
}

// AuthService is the remote authentication contract. Errors returned by
// implementations carry gRPC status codes so callers can branch on
// codes.Unauthenticated vs transport failures.
type AuthService interface {
	GetAuthorizationParams(ctx context.Context, p provider.Provider, clientID string) (*AuthorizationParams, error)
	ExchangeCode(ctx context.Context, p provider.Provider, code, state string) (*ExchangeResult, error)
	ValidateSession(ctx context.Context, sessionToken string) (*ValidateResult, error)
	Logout(ctx context.Context, sessionToken string) (*LogoutResult, error)
}
