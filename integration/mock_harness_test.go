package integration

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdock/task-front/internal/config"
)

func registerMock(t *testing.T, serverURL, testID, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, serverURL+"/test-mock", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if testID != "" {
		req.Header.Set("X-Test-Id", testID)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// callbackAs performs the callback step with the given test id attached.
func callbackAs(t *testing.T, browser *http.Client, serverURL, testID, state string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, serverURL+"/auth/callback/google?code=test-code&state="+url.QueryEscape(state), nil)
	require.NoError(t, err)
	if testID != "" {
		req.Header.Set("X-Test-Id", testID)
	}
	resp, err := browser.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func initiateLogin(t *testing.T, browser *http.Client, serverURL string) string {
	t.Helper()
	resp := postLogin(t, browser, serverURL, "google")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)
	return state
}

func TestInjectedOutageDuringExchange(t *testing.T) {
	server := startServer(t)
	browser := newBrowser(t)

	resp := registerMock(t, server.URL, "outage-test", `{
		"service": "Auth",
		"method": "ExchangeCode",
		"error": {"code": "UNAVAILABLE", "message": "auth service down"},
		"once": true
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	state := initiateLogin(t, browser, server.URL)
	callbackResp := callbackAs(t, browser, server.URL, "outage-test", state)

	assert.Equal(t, http.StatusBadGateway, callbackResp.StatusCode)
	assert.Nil(t, cookieNamed(callbackResp, "session"))
}

func TestOnceMockFallsThroughOnSecondFlow(t *testing.T) {
	server := startServer(t)

	resp := registerMock(t, server.URL, "once-test", `{
		"service": "Auth",
		"method": "ExchangeCode",
		"error": {"code": "UNAVAILABLE", "message": "auth service down"},
		"once": true
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// First flow hits the injected failure.
	browser := newBrowser(t)
	state := initiateLogin(t, browser, server.URL)
	first := callbackAs(t, browser, server.URL, "once-test", state)
	assert.Equal(t, http.StatusBadGateway, first.StatusCode)

	// Second flow falls through to the built-in fake backend and succeeds.
	browser2 := newBrowser(t)
	state2 := initiateLogin(t, browser2, server.URL)
	second := callbackAs(t, browser2, server.URL, "once-test", state2)
	assert.Equal(t, http.StatusFound, second.StatusCode)
	assert.NotNil(t, cookieNamed(second, "session"))
}

func TestMockIsolationBetweenTestIDs(t *testing.T) {
	server := startServer(t)

	resp := registerMock(t, server.URL, "t1", `{
		"service": "Auth",
		"method": "ExchangeCode",
		"error": {"code": "UNAVAILABLE", "message": "auth service down"}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// A flow running as t2 never sees t1's registration.
	browser := newBrowser(t)
	state := initiateLogin(t, browser, server.URL)
	callbackResp := callbackAs(t, browser, server.URL, "t2", state)
	assert.Equal(t, http.StatusFound, callbackResp.StatusCode)
	assert.NotNil(t, cookieNamed(callbackResp, "session"))
}

func TestClearMocks(t *testing.T) {
	server := startServer(t)

	resp := registerMock(t, server.URL, "clear-test", `{
		"service": "Auth",
		"method": "ExchangeCode",
		"error": {"code": "UNAVAILABLE", "message": "auth service down"}
	}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, server.URL+"/test-mock", nil)
	require.NoError(t, err)
	req.Header.Set("X-Test-Id", "clear-test")
	clearResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer clearResp.Body.Close()
	require.Equal(t, http.StatusOK, clearResp.StatusCode)

	browser := newBrowser(t)
	state := initiateLogin(t, browser, server.URL)
	callbackResp := callbackAs(t, browser, server.URL, "clear-test", state)
	assert.Equal(t, http.StatusFound, callbackResp.StatusCode)
}

func TestRegisterWithoutTestID(t *testing.T) {
	server := startServer(t)

	resp := registerMock(t, server.URL, "", `{
		"service": "Auth",
		"method": "ExchangeCode",
		"response": {"sessionToken": "abc"}
	}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHarnessLiveness(t *testing.T) {
	server := startServer(t)

	resp, err := http.Get(server.URL + "/test-mock")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHarnessDisabledOutsideMockMode(t *testing.T) {
	server := startServerWithConfig(t, config.Config{
		BaseURL:      "http://127.0.0.1",
		CookieSecret: "integration-test-secret-0123456789ab",
		AuthService:  config.AuthServiceConfig{BaseURL: "http://127.0.0.1:1"},
		Providers: map[string]*config.ProviderConfig{
			"google": {ClientID: "test-client"},
		},
	})

	resp, err := http.Get(server.URL + "/test-mock")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
