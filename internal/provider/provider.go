// Package provider maps identity provider names to their resolved
// configuration. The registry fails closed: a provider with missing
// configuration is rejected at construction, never served partially.
package provider

import (
	"errors"
	"fmt"
	"sort"

	"github.com/taskdock/task-front/internal/config"
)

// Provider identifies a supported third-party identity provider.
type Provider string

const (
	Google Provider = "google"
)

var known = map[string]Provider{
	"google": Google,
}

// ErrUnknownProvider is returned for provider names outside the static table.
var ErrUnknownProvider = errors.New("unknown identity provider")

// ErrNotConfigured is returned when a known provider has no configuration.
var ErrNotConfigured = errors.New("identity provider not configured")

// Parse resolves a provider name against the static table of known providers.
func Parse(name string) (Provider, error) {
	p, ok := known[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	return p, nil
}

// Config holds the per-provider values needed to initiate a login flow.
type Config struct {
	Provider Provider
	ClientID string
}

// Registry resolves providers to their configuration. Read-only after
// construction.
type Registry struct {
	configs map[Provider]Config
}

// NewRegistry builds a registry from process configuration. Unknown provider
// names and empty client ids are construction errors.
func NewRegistry(configured map[string]*config.ProviderConfig) (*Registry, error) {
	configs := make(map[Provider]Config, len(configured))
	for name, pc := range configured {
		p, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if pc == nil || pc.ClientID == "" {
			return nil, fmt.Errorf("provider %q: client id is required", name)
		}
		configs[p] = Config{Provider: p, ClientID: pc.ClientID}
	}
	return &Registry{configs: configs}, nil
}

// Providers lists every configured provider in stable name order.
func (r *Registry) Providers() []Config {
	configs := make([]Config, 0, len(r.configs))
	for _, cfg := range r.configs {
		configs = append(configs, cfg)
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].Provider < configs[j].Provider })
	return configs
}

// Config returns the configuration for a provider, or ErrNotConfigured.
func (r *Registry) Config(p Provider) (Config, error) {
	cfg, ok := r.configs[p]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrNotConfigured, p)
	}
	return cfg, nil
}
