package mockrpc

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func newTestRegistry() *Registry {
	return NewRegistry(AuthShapes())
}

func int64p(v int64) *int64 { return &v }

func TestRegisterRequiresExactlyOneOfResponseAndError(t *testing.T) {
	registry := newTestRegistry()

	err := registry.Register("t1", RegisterRequest{Service: "Auth", Method: "Logout"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")

	err = registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "Logout",
		Response: json.RawMessage(`{"success": true}`),
		Error:    &ErrorSpec{Code: codes.Unavailable, Message: "down"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one")
}

func TestRegisterValidatesResponseShape(t *testing.T) {
	registry := newTestRegistry()

	err := registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "abc", "bogusField": 1}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result shape")

	err = registry.Register("t1", RegisterRequest{
		Service:  "Nonexistent",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown service")

	err = registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "Nonexistent",
		Response: json.RawMessage(`{}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown method")
}

func TestRegisterDecodesErrorCodeByName(t *testing.T) {
	registry := newTestRegistry()

	var req RegisterRequest
	require.NoError(t, json.Unmarshal([]byte(`{
		"service": "Auth",
		"method": "ExchangeCode",
		"error": {"code": "UNAVAILABLE", "message": "auth service down"}
	}`), &req))
	require.NoError(t, registry.Register("t1", req))

	reg, found := registry.Take("t1", "Auth", "ExchangeCode")
	require.True(t, found)
	require.NotNil(t, reg.Error)
	assert.Equal(t, codes.Unavailable, reg.Error.Code)
}

func TestTakeNewestWins(t *testing.T) {
	registry := newTestRegistry()

	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "older"}`),
	}))
	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "newer"}`),
	}))

	reg, found := registry.Take("t1", "Auth", "ExchangeCode")
	require.True(t, found)
	assert.JSONEq(t, `{"sessionToken": "newer"}`, string(reg.Response))
}

func TestTakeOnceConsumesExactlyOnce(t *testing.T) {
	registry := newTestRegistry()

	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "abc"}`),
		Once:     true,
	}))

	_, found := registry.Take("t1", "Auth", "ExchangeCode")
	require.True(t, found)

	_, found = registry.Take("t1", "Auth", "ExchangeCode")
	assert.False(t, found)
}

func TestTakeOnceIsAtomicUnderConcurrency(t *testing.T) {
	registry := newTestRegistry()

	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "abc"}`),
		Once:     true,
	}))

	const callers = 32
	var wins atomic.Int32
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, found := registry.Take("t1", "Auth", "ExchangeCode"); found {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}

func TestTakeIsolatesTestIDs(t *testing.T) {
	registry := newTestRegistry()

	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "abc"}`),
	}))

	_, found := registry.Take("t2", "Auth", "ExchangeCode")
	assert.False(t, found)

	_, found = registry.Take("t1", "Auth", "ExchangeCode")
	assert.True(t, found)
}

func TestTakeZeroTTLIsAbsentOnNextLookup(t *testing.T) {
	registry := newTestRegistry()

	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "abc"}`),
		TTLMs:    int64p(0),
	}))

	_, found := registry.Take("t1", "Auth", "ExchangeCode")
	assert.False(t, found)
}

func TestTakeExpiredEntryFallsBackToOlderLiveOne(t *testing.T) {
	registry := newTestRegistry()
	current := time.Now()
	registry.now = func() time.Time { return current }

	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "long-lived"}`),
	}))
	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "short-lived"}`),
		TTLMs:    int64p(50),
	}))

	current = current.Add(100 * time.Millisecond)

	reg, found := registry.Take("t1", "Auth", "ExchangeCode")
	require.True(t, found)
	assert.JSONEq(t, `{"sessionToken": "long-lived"}`, string(reg.Response))
}

func TestClearRemovesOnlyThatTestID(t *testing.T) {
	registry := newTestRegistry()

	require.NoError(t, registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "ExchangeCode",
		Response: json.RawMessage(`{"sessionToken": "abc"}`),
	}))
	require.NoError(t, registry.Register("t2", RegisterRequest{
		Service:  "Auth",
		Method:   "Logout",
		Response: json.RawMessage(`{"success": true}`),
	}))

	registry.Clear("t1")

	_, found := registry.Take("t1", "Auth", "ExchangeCode")
	assert.False(t, found)
	_, found = registry.Take("t2", "Auth", "Logout")
	assert.True(t, found)
}

func TestRegisterRejectsNegativeTTL(t *testing.T) {
	registry := newTestRegistry()

	err := registry.Register("t1", RegisterRequest{
		Service:  "Auth",
		Method:   "Logout",
		Response: json.RawMessage(`{"success": true}`),
		TTLMs:    int64p(-1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ttlMs")
}
