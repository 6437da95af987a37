package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/taskdock/task-front/internal/log"
)

// HTTPServer owns the listener lifecycle: blocking start, graceful stop.
type HTTPServer struct {
	server *http.Server
}

// NewHTTPServer wraps handler in a server listening on addr.
func NewHTTPServer(handler http.Handler, addr string) *HTTPServer {
	return &HTTPServer{
		server: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start serves until Stop is called. A closed-server error is not an error.
func (h *HTTPServer) Start() error {
	log.LogInfoWithFields("http", "Listening", map[string]any{
		"addr": h.server.Addr,
	})

	if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (h *HTTPServer) Stop(ctx context.Context) error {
	log.LogInfoWithFields("http", "Draining connections", map[string]any{
		"addr": h.server.Addr,
	})

	if err := h.server.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// NewHealthHandler answers liveness probes.
func NewHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
}
