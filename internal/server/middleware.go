package server

import (
	"net/http"
	"time"

	"github.com/taskdock/task-front/internal/log"
	"github.com/taskdock/task-front/internal/mockrpc"
	"github.com/taskdock/task-front/internal/servicecontext"
	"github.com/taskdock/task-front/internal/session"
)

// MiddlewareFunc is a function that wraps an http.Handler
type MiddlewareFunc func(http.Handler) http.Handler

// ChainMiddleware chains multiple middleware functions
func ChainMiddleware(h http.Handler, middlewares ...MiddlewareFunc) http.Handler {
	for _, mw := range middlewares {
		h = mw(h)
	}
	return h
}

// responseWriterDelegator wraps http.ResponseWriter to capture the status code
type responseWriterDelegator struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (d *responseWriterDelegator) WriteHeader(status int) {
	if !d.wroteHeader {
		d.status = status
		d.wroteHeader = true
	}
	d.ResponseWriter.WriteHeader(status)
}

func (d *responseWriterDelegator) Write(b []byte) (int, error) {
	if !d.wroteHeader {
		d.status = http.StatusOK
		d.wroteHeader = true
	}
	return d.ResponseWriter.Write(b)
}

func (d *responseWriterDelegator) Unwrap() http.ResponseWriter {
	return d.ResponseWriter
}

// NewLoggingMiddleware logs each request with its status and duration
func NewLoggingMiddleware() MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			delegator := &responseWriterDelegator{ResponseWriter: w}
			next.ServeHTTP(delegator, r)

			log.LogDebugWithFields("http", "Request handled", map[string]any{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   delegator.status,
				"duration": time.Since(start).String(),
			})
		})
	}
}

// NewRecoverMiddleware converts panics into 500 responses
func NewRecoverMiddleware() MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.LogErrorWithFields("http", "Handler panicked", map[string]any{
						"method": r.Method,
						"path":   r.URL.Path,
						"panic":  rec,
					})
					http.Error(w, "internal server error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// NewTestIDMiddleware attaches the caller's test id to the request context
// so the mock registry can partition registrations per test. Only wired
// when mock mode is enabled; production requests never carry a test id.
func NewTestIDMiddleware() MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if testID := r.Header.Get(mockrpc.TestIDHeader); testID != "" {
				r = r.WithContext(servicecontext.WithTestID(r.Context(), testID))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NewSessionTokenMiddleware attaches the request's session token to the
// context. Downstream RPC clients pick it up as the bearer credential;
// validity is not checked here.
func NewSessionTokenMiddleware(sessions *session.Store) MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := sessions.Read(r); ok {
				r = r.WithContext(servicecontext.WithSessionToken(r.Context(), token))
			}
			next.ServeHTTP(w, r)
		})
	}
}
