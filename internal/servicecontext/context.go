// Package servicecontext carries request-scoped identity through the call
// chain: the session token attached to outbound RPCs and the test id that
// addresses the mock registry. Values travel on the context explicitly;
// there is no ambient global state to reset between requests or tests.
package servicecontext

import (
	"context"
)

type contextKey string

const (
	testIDKey       contextKey = "request.test_id"
	sessionTokenKey contextKey = "request.session_token"
)

// WithTestID attaches a test identity to the context. Set by middleware from
// the X-Test-Id header when the mock transport is enabled.
func WithTestID(ctx context.Context, testID string) context.Context {
	return context.WithValue(ctx, testIDKey, testID)
}

// TestID retrieves the test identity from the context.
func TestID(ctx context.Context) (string, bool) {
	testID, ok := ctx.Value(testIDKey).(string)
	return testID, ok && testID != ""
}

// WithSessionToken attaches the caller's session token to the context.
// RPC clients read it back to set the bearer header on outbound calls.
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey, token)
}

// SessionToken retrieves the session token from the context.
func SessionToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(sessionTokenKey).(string)
	return token, ok && token != ""
}
