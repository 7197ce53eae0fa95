// Package config loads configuration from environment variables. A .env
// file in the working directory is honored when present.
package config

import (
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
)

// Config holds all sync engine configuration.
type Config struct {
	// OAuth application credentials
	ClientID     string
	ClientSecret string

	// Endpoints (overridable for testing against a stub provider)
	BaseURL      string
	AuthorizeURL string
	TokenURL     string

	// Loopback callback listener. RedirectURI must match the callback URL
	// registered with the OAuth application.
	RedirectURI string
	ListenAddr  string

	Scope        string
	LoginTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string

	// Metrics endpoint (empty = disabled)
	MetricsAddr string
}

// Load reads configuration from the environment with defaults.
func Load() (*Config, error) {
	// Missing .env is fine; production supplies real env vars.
	_ = godotenv.Load()

	cfg := &Config{
		ClientID:     envOr("APS_CLIENT_ID", ""),
		ClientSecret: envOr("APS_CLIENT_SECRET", ""),
		BaseURL:      envOr("APS_BASE_URL", "https://developer.api.autodesk.com"),
		AuthorizeURL: envOr("APS_AUTHORIZE_URL", "https://developer.api.autodesk.com/authentication/v2/authorize"),
		TokenURL:     envOr("APS_TOKEN_URL", "https://developer.api.autodesk.com/authentication/v2/token"),
		RedirectURI:  envOr("APS_REDIRECT_URI", "http://127.0.0.1:8080/callback/"),
		ListenAddr:   envOr("APS_CALLBACK_ADDR", "127.0.0.1:8080"),
		Scope:        envOr("APS_SCOPE", "data:read data:write"),
		LoginTimeout: envDuration("LOGIN_TIMEOUT", 5*time.Minute),
		LogLevel:     envOr("LOG_LEVEL", "info"),
		LogFormat:    envOr("LOG_FORMAT", "console"),
		MetricsAddr:  envOr("METRICS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and URL well-formedness.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ClientID, validation.Required),
		validation.Field(&c.ClientSecret, validation.Required),
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.AuthorizeURL, validation.Required, is.URL),
		validation.Field(&c.TokenURL, validation.Required, is.URL),
		validation.Field(&c.RedirectURI, validation.Required, is.URL),
		validation.Field(&c.ListenAddr, validation.Required),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
