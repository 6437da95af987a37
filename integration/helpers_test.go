package integration

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taskdock/task-front/internal"
	"github.com/taskdock/task-front/internal/config"
)

// startServer spins up the fully wired application handler in mock mode.
func startServer(t *testing.T) *httptest.Server {
	t.Helper()
	return startServerWithConfig(t, config.Config{
		BaseURL:      "http://127.0.0.1",
		MockMode:     true,
		CookieSecret: "integration-test-secret-0123456789ab",
		Providers: map[string]*config.ProviderConfig{
			"google": {ClientID: "test-client"},
		},
	})
}

func startServerWithConfig(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	handler, err := internal.NewHandler(cfg)
	require.NoError(t, err)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// newBrowser returns a client with a cookie jar that never follows
// redirects, so tests can inspect each hop of the flow.
func newBrowser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
