package config

import (
	"fmt"

	"github.com/taskdock/task-front/internal/envutil"
	"github.com/taskdock/task-front/internal/log"
)

// Validate checks the resolved configuration. Malformed deployment
// configuration must fail loudly at startup, never degrade to no-auth.
func Validate(cfg *Config) error {
	if cfg.BaseURL == "" {
		return fmt.Errorf("baseURL is required")
	}
	if !cfg.MockMode && cfg.AuthService.BaseURL == "" {
		return fmt.Errorf("authService.baseURL is required unless mockMode is enabled")
	}
	if len(cfg.Providers) == 0 {
		return fmt.Errorf("at least one identity provider must be configured")
	}
	for name, p := range cfg.Providers {
		if p.ClientID == "" {
			return fmt.Errorf("provider %q: clientId must not be empty", name)
		}
	}

	return validateCookieSecret(cfg)
}

// validateCookieSecret enforces the session secret policy: production
// requires an explicit secret of at least 32 characters that differs from
// the development default. Development tolerates the default, with a warning.
func validateCookieSecret(cfg *Config) error {
	if cfg.CookieSecret == "" {
		if !envutil.IsDev() {
			return fmt.Errorf("cookieSecret is required in production")
		}
		log.LogWarnWithFields("config", "Using built-in development cookie secret", nil)
		cfg.CookieSecret = DevCookieSecret
		return nil
	}

	if envutil.IsDev() {
		return nil
	}

	if len(cfg.CookieSecret) < 32 {
		return fmt.Errorf("cookieSecret must be at least 32 characters in production")
	}
	if string(cfg.CookieSecret) == DevCookieSecret {
		return fmt.Errorf("cookieSecret must differ from the development default in production")
	}
	return nil
}
