package authrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/taskdock/task-front/internal/provider"
	"github.com/taskdock/task-front/internal/servicecontext"
)

func TestClientGetAuthorizationParams(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(AuthorizationParams{
			AuthorizationURL: "https://idp.example.com/authorize?state=abc",
			State:            "abc",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	params, err := client.GetAuthorizationParams(context.Background(), provider.Google, "client-123")
	require.NoError(t, err)

	assert.Equal(t, "/rpc/Auth/GetAuthorizationParams", gotPath)
	assert.Equal(t, "google", gotBody["provider"])
	assert.Equal(t, "client-123", gotBody["clientId"])
	assert.Equal(t, "abc", params.State)
	assert.Contains(t, params.AuthorizationURL, "state=abc")
}

func TestClientAttachesBearerFromContext(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(ValidateResult{UserID: "user-1"})
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	ctx := servicecontext.WithSessionToken(context.Background(), "token-xyz")
	result, err := client.ValidateSession(ctx, "token-xyz")
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-xyz", gotAuth)
	assert.Equal(t, "user-1", result.UserID)
}

func TestClientDecodesRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code": "UNAUTHENTICATED", "message": "session token invalid"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.ValidateSession(context.Background(), "bad-token")
	require.Error(t, err)

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, st.Code())
	assert.Equal(t, "session token invalid", st.Message())
}

func TestClientMapsBareHTTPFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.ExchangeCode(context.Background(), provider.Google, "code", "state")
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestClientUnreachableService(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.ExchangeCode(context.Background(), provider.Google, "code", "state")
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}
