package server

import (
	"errors"
	"net/http"

	"github.com/taskdock/task-front/internal/authrpc"
	"github.com/taskdock/task-front/internal/cookie"
	jsonwriter "github.com/taskdock/task-front/internal/json"
	"github.com/taskdock/task-front/internal/log"
	"github.com/taskdock/task-front/internal/metrics"
	"github.com/taskdock/task-front/internal/provider"
	"github.com/taskdock/task-front/internal/session"
)

// AuthHandlers drives the login flow with dependency injection
type AuthHandlers struct {
	providers *provider.Registry
	auth      authrpc.AuthService
	states    *cookie.StateCourier
	sessions  *session.Store
}

// NewAuthHandlers creates new auth handlers
func NewAuthHandlers(
	providers *provider.Registry,
	auth authrpc.AuthService,
	states *cookie.StateCourier,
	sessions *session.Store,
) *AuthHandlers {
	return &AuthHandlers{
		providers: providers,
		auth:      auth,
		states:    states,
		sessions:  sessions,
	}
}

// LoginPageHandler renders the provider selection page
func (h *AuthHandlers) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	data := LoginPageData{}
	for _, cfg := range h.providers.Providers() {
		data.Providers = append(data.Providers, string(cfg.Provider))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := loginPageTemplate.Execute(w, data); err != nil {
		log.LogError("Failed to render login page: %v", err)
	}
}

// LoginHandler initiates the login flow: resolves the provider, fetches
// authorization parameters, stores the state in a cookie, and redirects
// the browser to the identity provider.
func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonwriter.WriteBadRequest(w, "invalid form body")
		return
	}
	name := r.PostFormValue("provider")
	if name == "" {
		jsonwriter.WriteBadRequest(w, "provider is required")
		return
	}

	p, err := provider.Parse(name)
	if err != nil {
		jsonwriter.WriteError(w, http.StatusBadRequest, string(ConfigurationError), "unknown identity provider")
		return
	}
	cfg, err := h.providers.Config(p)
	if err != nil {
		log.LogErrorWithFields("auth", "Provider not configured", map[string]any{
			"provider": name,
		})
		jsonwriter.WriteError(w, http.StatusBadRequest, string(ConfigurationError), "identity provider not configured")
		return
	}

	params, err := h.auth.GetAuthorizationParams(r.Context(), p, cfg.ClientID)
	if err != nil {
		log.LogErrorWithFields("auth", "Failed to get authorization params", map[string]any{
			"provider": name,
			"error":    err.Error(),
		})
		metrics.LoginFailed.WithLabelValues(name, string(AuthenticationFailed)).Inc()
		renderFlowError(w, AuthenticationFailed, http.StatusBadGateway)
		return
	}

	if err := h.states.SetState(w, params.State); err != nil {
		log.LogError("Failed to set state cookie: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal server error")
		return
	}

	metrics.LoginInitiated.WithLabelValues(name).Inc()
	log.LogInfoWithFields("auth", "Login initiated", map[string]any{
		"provider": name,
	})
	http.Redirect(w, r, params.AuthorizationURL, http.StatusSeeOther)
}

// CallbackHandler completes the login flow. Within one invocation the
// order is fixed: state validation, then code exchange, then session
// creation. The state cookie is cleared on every path that consumed it.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("provider")
	p, err := provider.Parse(name)
	if err != nil {
		renderFlowError(w, ConfigurationError, http.StatusNotFound)
		return
	}
	if _, err := h.providers.Config(p); err != nil {
		renderFlowError(w, ConfigurationError, http.StatusNotFound)
		return
	}

	query := r.URL.Query()
	if providerErr := query.Get("error"); providerErr != "" {
		log.LogWarnWithFields("auth", "Provider returned error on callback", map[string]any{
			"provider": name,
			"error":    providerErr,
		})
		h.states.ClearState(w)
		metrics.LoginFailed.WithLabelValues(name, string(AuthenticationFailed)).Inc()
		renderFlowError(w, AuthenticationFailed, http.StatusBadGateway)
		return
	}

	code := query.Get("code")
	state := query.Get("state")
	if code == "" || state == "" {
		metrics.LoginFailed.WithLabelValues(name, string(MissingParameters)).Inc()
		renderFlowError(w, MissingParameters, http.StatusBadRequest)
		return
	}

	// The stored state is single-use: cleared before the outcome is known,
	// so a failed attempt can never be replayed with the same cookie.
	stored, present := h.states.GetState(r)
	h.states.ClearState(w)
	if !present || stored != state {
		log.LogWarnWithFields("auth", "State validation failed", map[string]any{
			"provider":          name,
			"storedStateFound":  present,
			"queryStatePresent": state != "",
		})
		metrics.LoginFailed.WithLabelValues(name, string(InvalidState)).Inc()
		renderFlowError(w, InvalidState, http.StatusBadRequest)
		return
	}

	result, err := h.auth.ExchangeCode(r.Context(), p, code, state)
	if err != nil {
		log.LogErrorWithFields("auth", "Code exchange failed", map[string]any{
			"provider": name,
			"error":    err.Error(),
		})
		metrics.LoginFailed.WithLabelValues(name, string(AuthenticationFailed)).Inc()
		renderFlowError(w, AuthenticationFailed, http.StatusBadGateway)
		return
	}

	if err := h.sessions.Create(w, result.SessionToken); err != nil {
		log.LogError("Failed to create session cookie: %v", err)
		jsonwriter.WriteInternalServerError(w, "Internal server error")
		return
	}

	metrics.LoginCompleted.WithLabelValues(name).Inc()
	log.LogInfoWithFields("auth", "Login completed", map[string]any{
		"provider": name,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// LogoutHandler clears the session. Always redirects home; a second
// logout with an already-destroyed session behaves like the first.
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	h.sessions.Logout(r.Context(), w, r)
	metrics.Logouts.Inc()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HomeHandler renders the signed-in landing page, or redirects to the
// login page when no valid session is present.
func (h *AuthHandlers) HomeHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonwriter.WriteNotFound(w, "page not found")
		return
	}

	userID, _, err := h.sessions.Validate(r.Context(), r)
	if err != nil {
		if errors.Is(err, session.ErrUnauthorized) {
			metrics.SessionValidations.WithLabelValues("unauthorized").Inc()
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		log.LogError("Session validation failed: %v", err)
		metrics.SessionValidations.WithLabelValues("error").Inc()
		renderFlowError(w, AuthenticationFailed, http.StatusBadGateway)
		return
	}

	metrics.SessionValidations.WithLabelValues("valid").Inc()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := homePageTemplate.Execute(w, HomePageData{UserID: userID}); err != nil {
		log.LogError("Failed to render home page: %v", err)
	}
}
