package internal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/taskdock/task-front/internal/authrpc"
	"github.com/taskdock/task-front/internal/config"
	"github.com/taskdock/task-front/internal/cookie"
	"github.com/taskdock/task-front/internal/crypto"
	"github.com/taskdock/task-front/internal/fakeauth"
	"github.com/taskdock/task-front/internal/log"
	"github.com/taskdock/task-front/internal/mockrpc"
	"github.com/taskdock/task-front/internal/provider"
	"github.com/taskdock/task-front/internal/server"
	"github.com/taskdock/task-front/internal/session"
)

// TaskFront represents the complete authentication front application
type TaskFront struct {
	config     config.Config
	httpServer *server.HTTPServer
}

// NewTaskFront creates the application with all dependencies built
func NewTaskFront(ctx context.Context, cfg config.Config) (*TaskFront, error) {
	log.LogInfoWithFields("taskfront", "Building application", map[string]any{
		"baseURL":   cfg.BaseURL,
		"providers": len(cfg.Providers),
		"mockMode":  cfg.MockMode,
	})

	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	httpServer := server.NewHTTPServer(handler, cfg.Addr)

	return &TaskFront{
		config:     cfg,
		httpServer: httpServer,
	}, nil
}

// NewHandler builds the fully wired HTTP handler for a configuration.
// Split from NewTaskFront so tests can drive the complete routing stack
// in-process.
func NewHandler(cfg config.Config) (http.Handler, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	// The Secure flag follows the configured scheme. Cookie jars drop
	// Secure cookies arriving over plain http, so an http base URL must
	// issue plain cookies or login never completes.
	secureCookies := base.Scheme == "https"

	keys, err := crypto.DeriveCookieKeys([]byte(cfg.CookieSecret))
	if err != nil {
		return nil, fmt.Errorf("deriving cookie keys: %w", err)
	}

	providers, err := provider.NewRegistry(cfg.Providers)
	if err != nil {
		return nil, fmt.Errorf("building provider registry: %w", err)
	}

	auth, registry := setupAuthTransport(cfg)
	states := cookie.NewStateCourier(keys.State, secureCookies)
	sessions := session.NewStore(keys.Session, auth, secureCookies)

	return buildHTTPHandler(providers, auth, states, sessions, registry, cfg.MockMode), nil
}

// setupAuthTransport selects the live RPC client or, in mock mode, the
// registry-driven transport backed by the in-memory fake service.
func setupAuthTransport(cfg config.Config) (authrpc.AuthService, *mockrpc.Registry) {
	if !cfg.MockMode {
		return authrpc.NewClient(cfg.AuthService.BaseURL, cfg.AuthService.RPCTimeout), nil
	}

	log.LogInfoWithFields("taskfront", "Mock mode enabled, using in-memory auth backend", nil)
	registry := mockrpc.NewRegistry(mockrpc.AuthShapes())
	return mockrpc.NewAuthTransport(registry, fakeauth.New(cfg.BaseURL)), registry
}

// buildHTTPHandler registers all routes with dependency injection
func buildHTTPHandler(
	providers *provider.Registry,
	auth authrpc.AuthService,
	states *cookie.StateCourier,
	sessions *session.Store,
	registry *mockrpc.Registry,
	mockMode bool,
) http.Handler {
	mux := http.NewServeMux()

	authHandlers := server.NewAuthHandlers(providers, auth, states, sessions)

	mux.Handle("/healthz", server.NewHealthHandler())
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("GET /login", authHandlers.LoginPageHandler)
	mux.HandleFunc("POST /login", authHandlers.LoginHandler)
	mux.HandleFunc("GET /auth/callback/{provider}", authHandlers.CallbackHandler)
	mux.HandleFunc("POST /logout", authHandlers.LogoutHandler)
	mux.HandleFunc("/", authHandlers.HomeHandler)

	middlewares := []server.MiddlewareFunc{
		server.NewSessionTokenMiddleware(sessions),
		server.NewLoggingMiddleware(),
		server.NewRecoverMiddleware(),
	}

	if mockMode && registry != nil {
		mockHandlers := mockrpc.NewHandler(registry)
		mux.HandleFunc("POST /test-mock", mockHandlers.Register)
		mux.HandleFunc("DELETE /test-mock", mockHandlers.Clear)
		mux.HandleFunc("GET /test-mock", mockHandlers.Status)

		middlewares = append([]server.MiddlewareFunc{server.NewTestIDMiddleware()}, middlewares...)
	}

	return server.ChainMiddleware(mux, middlewares...)
}

// Run starts the application and blocks until shutdown
func (t *TaskFront) Run() error {
	log.LogInfoWithFields("taskfront", "Starting application", map[string]any{
		"addr": t.config.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)

	go func() {
		if err := t.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("taskfront", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("taskfront", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	case <-ctx.Done():
		shutdownReason = "context cancelled"
		log.LogInfoWithFields("taskfront", "Context cancelled, shutting down", nil)
	}

	log.LogInfoWithFields("taskfront", "Starting graceful shutdown", map[string]any{
		"reason":  shutdownReason,
		"timeout": "30s",
	})
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := t.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("taskfront", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	log.LogInfoWithFields("taskfront", "Application shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}
