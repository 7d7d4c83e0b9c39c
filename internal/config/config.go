package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config stores environment-driven settings for the server.
// Flag values take precedence over environment variables; see cmd/serve.go.
type Config struct {
	// ClientID is the OAuth client ID for the property-management platform.
	ClientID string `env:"PMS_CLIENT_ID"`
	// ClientSecret is the OAuth client secret for the property-management platform.
	ClientSecret string `env:"PMS_CLIENT_SECRET"`
	// Scope is the OAuth scope requested with the client-credentials grant.
	Scope string `env:"PMS_SCOPE" envDefault:"open-api"`
	// APIURL is the base URL of the upstream resource API.
	APIURL string `env:"PMS_API_URL" envDefault:"https://api.pms.example.com/v1"`
	// TokenURL is the OAuth token endpoint of the upstream platform.
	TokenURL string `env:"PMS_TOKEN_URL" envDefault:"https://api.pms.example.com/oauth2/token"`
	// HTTPAddr is the listen address for the HTTP transport.
	HTTPAddr string `env:"HOSTBRIDGE_HTTP_ADDR" envDefault:":8080"`
	// AllowedOrigins lists origins permitted by the CORS middleware.
	AllowedOrigins []string `env:"HOSTBRIDGE_ALLOWED_ORIGINS" envSeparator:","`
	// MetricsAddr is the listen address for the Prometheus metrics server.
	MetricsAddr string `env:"HOSTBRIDGE_METRICS_ADDR" envDefault:":9090"`
}

// Load parses environment variables into Config.
func Load() (Config, error) {
	return env.ParseAs[Config]()
}

// Validate checks that required credentials are present.
// Missing credentials are fatal at startup, before any request is served.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("missing PMS client ID (set PMS_CLIENT_ID or --client-id)")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("missing PMS client secret (set PMS_CLIENT_SECRET or --client-secret)")
	}
	if c.APIURL == "" {
		return fmt.Errorf("missing PMS API URL")
	}
	if c.TokenURL == "" {
		return fmt.Errorf("missing PMS token URL")
	}
	return nil
}
