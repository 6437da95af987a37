package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// DevCookieSecret is the built-in development signing secret. Production
// deployments must configure their own; see Validate.
const DevCookieSecret = "task-front-dev-cookie-secret-do-not-deploy"

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// ProviderConfig holds the per-provider values resolved from configuration
type ProviderConfig struct {
	ClientID string `json:"-"`

	ClientIDRaw json.RawMessage `json:"clientId"`
}

// AuthServiceConfig points at the downstream authentication RPC service
type AuthServiceConfig struct {
	BaseURL string `json:"baseURL"`

	// RPCTimeout bounds every outbound call to the authentication service.
	// A stalled upstream would otherwise hang the login flow indefinitely.
	RPCTimeout time.Duration `json:"-"`

	RPCTimeoutRaw string `json:"rpcTimeout,omitempty"`
}

// Config represents the task-front configuration with resolved values
type Config struct {
	BaseURL     string                     `json:"baseURL"`
	Addr        string                     `json:"addr"`
	AuthService AuthServiceConfig          `json:"authService"`
	Providers   map[string]*ProviderConfig `json:"providers"`
	MockMode    bool                       `json:"mockMode,omitempty"`

	CookieSecret Secret `json:"-"`

	CookieSecretRaw json.RawMessage `json:"cookieSecret,omitempty"`
}

// ParseConfigValue parses a JSON value that is either a plain string or an
// environment variable reference of the form {"$env": "VAR_NAME"}.
func ParseConfigValue(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return "", fmt.Errorf("unknown reference type in config value")
	}

	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}
	return value, nil
}
