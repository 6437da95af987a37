package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

const (
	defaultAddr       = ":8080"
	defaultRPCTimeout = 10 * time.Second
)

// Load reads the config file, resolves {"$env": ...} references, applies
// defaults, and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from raw JSON. Split from Load so tests can feed
// literal documents.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	if err := resolve(&cfg); err != nil {
		return Config{}, err
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// resolve replaces raw reference values with their resolved counterparts
func resolve(cfg *Config) error {
	if cfg.CookieSecretRaw != nil {
		secret, err := ParseConfigValue(cfg.CookieSecretRaw)
		if err != nil {
			return fmt.Errorf("resolving cookieSecret: %w", err)
		}
		cfg.CookieSecret = Secret(secret)
	}

	for name, p := range cfg.Providers {
		if p == nil {
			return fmt.Errorf("provider %q: configuration must be an object", name)
		}
		if p.ClientIDRaw == nil {
			return fmt.Errorf("provider %q: clientId is required", name)
		}
		clientID, err := ParseConfigValue(p.ClientIDRaw)
		if err != nil {
			return fmt.Errorf("resolving providers.%s.clientId: %w", name, err)
		}
		p.ClientID = clientID
	}

	if cfg.AuthService.RPCTimeoutRaw != "" {
		timeout, err := time.ParseDuration(cfg.AuthService.RPCTimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing authService.rpcTimeout: %w", err)
		}
		cfg.AuthService.RPCTimeout = timeout
	}

	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}
	if cfg.AuthService.RPCTimeout == 0 {
		cfg.AuthService.RPCTimeout = defaultRPCTimeout
	}
}
