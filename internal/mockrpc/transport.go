package mockrpc

import (
	"context"
	"encoding/json"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskdock/task-front/internal/authrpc"
	"github.com/taskdock/task-front/internal/log"
	"github.com/taskdock/task-front/internal/provider"
	"github.com/taskdock/task-front/internal/servicecontext"
)

// AuthShapes declares the result type of every interceptable Auth method,
// so registrations are validated against real payload shapes.
func AuthShapes() ResultShapes {
	return ResultShapes{
		authrpc.ServiceName: {
			authrpc.MethodGetAuthorizationParams: func() any { return &authrpc.AuthorizationParams{} },
			authrpc.MethodExchangeCode:           func() any { return &authrpc.ExchangeResult{} },
			authrpc.MethodValidateSession:        func() any { return &authrpc.ValidateResult{} },
			authrpc.MethodLogout:                 func() any { return &authrpc.LogoutResult{} },
		},
	}
}

// AuthTransport implements authrpc.AuthService by consulting the mock
// registry first and falling through to a backing implementation when
// nothing is registered. Injection is additive: the happy path never
// requires a registration.
type AuthTransport struct {
	registry *Registry
	fallback authrpc.AuthService
}

var _ authrpc.AuthService = (*AuthTransport)(nil)

// NewAuthTransport wraps fallback with registry-driven interception.
func NewAuthTransport(registry *Registry, fallback authrpc.AuthService) *AuthTransport {
	return &AuthTransport{registry: registry, fallback: fallback}
}

// intercept resolves a registration for the calling test, if any. The test
// id comes from request-scoped context; calls without one always fall
// through.
func (t *AuthTransport) intercept(ctx context.Context, method string, result any) (bool, error) {
	testID, ok := servicecontext.TestID(ctx)
	if !ok {
		return false, nil
	}
	reg, found := t.registry.Take(testID, authrpc.ServiceName, method)
	if !found {
		return false, nil
	}

	log.LogDebugWithFields("mockrpc", "Intercepted auth call", map[string]any{
		"testId":   testID,
		"method":   method,
		"injected": reg.Error != nil,
	})

	if reg.Error != nil {
		return true, status.Error(reg.Error.Code, reg.Error.Message)
	}
	if err := json.Unmarshal(reg.Response, result); err != nil {
		return true, status.Errorf(codes.Internal, "decoding mocked %s response: %v", method, err)
	}
	return true, nil
}

func (t *AuthTransport) GetAuthorizationParams(ctx context.Context, p provider.Provider, clientID string) (*authrpc.AuthorizationParams, error) {
	var result authrpc.AuthorizationParams
	if done, err := t.intercept(ctx, authrpc.MethodGetAuthorizationParams, &result); done {
		if err != nil {
			return nil, err
		}
		return &result, nil
	}
	return t.fallback.GetAuthorizationParams(ctx, p, clientID)
}

func (t *AuthTransport) ExchangeCode(ctx context.Context, p provider.Provider, code, state string) (*authrpc.ExchangeResult, error) {
	var result authrpc.ExchangeResult
	if done, err := t.intercept(ctx, authrpc.MethodExchangeCode, &result); done {
		if err != nil {
			return nil, err
		}
		return &result, nil
	}
	return t.fallback.ExchangeCode(ctx, p, code, state)
}

func (t *AuthTransport) ValidateSession(ctx context.Context, sessionToken string) (*authrpc.ValidateResult, error) {
	var result authrpc.ValidateResult
	if done, err := t.intercept(ctx, authrpc.MethodValidateSession, &result); done {
		if err != nil {
			return nil, err
		}
		return &result, nil
	}
	return t.fallback.ValidateSession(ctx, sessionToken)
}

func (t *AuthTransport) Logout(ctx context.Context, sessionToken string) (*authrpc.LogoutResult, error) {
	var result authrpc.LogoutResult
	if done, err := t.intercept(ctx, authrpc.MethodLogout, &result); done {
		if err != nil {
			return nil, err
		}
		return &result, nil
	}
	return t.fallback.Logout(ctx, sessionToken)
}
