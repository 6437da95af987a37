package cookie

import (
	"net/http"
	"time"

	"github.com/taskdock/task-front/internal/log"
)

// Common cookie names used in task-front
const (
	SessionCookie = "session"
	StateCookie   = "oidc_state"
)

// SetSession sets the session cookie. secure comes from deployment
// configuration (an https base URL), not an ambient env lookup, so tests
// and plain-HTTP dev servers get cookies their clients will return.
func SetSession(w http.ResponseWriter, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})

	log.LogDebugWithFields("cookie", "Session cookie set", map[string]any{
		"maxAge":   maxAge.String(),
		"secure":   secure,
		"sameSite": "Lax",
	})
}

// SetState sets the login state cookie. SameSite is Lax so the cookie is
// sent on the top-level redirect back from the identity provider.
func SetState(w http.ResponseWriter, value string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

// Clear removes a cookie by setting MaxAge to -1
func Clear(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:   name,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

// ClearSession removes the session cookie
func ClearSession(w http.ResponseWriter) {
	Clear(w, SessionCookie)
	log.LogDebugWithFields("cookie", "Session cookie cleared", nil)
}

// ClearState removes the login state cookie
func ClearState(w http.ResponseWriter) {
	Clear(w, StateCookie)
}

// Get retrieves a cookie value from the request
func Get(r *http.Request, name string) (string, error) {
	cookie, err := r.Cookie(name)
	if err != nil {
		return "", err
	}
	return cookie.Value, nil
}

// GetSession retrieves the session cookie value
func GetSession(r *http.Request) (string, error) {
	return Get(r, SessionCookie)
}

// GetState retrieves the login state cookie value
func GetState(r *http.Request) (string, error) {
	return Get(r, StateCookie)
}
