package xapi

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds Learning Record Store settings.
type Config struct {
	// Endpoint is the LRS base URL, e.g. https://lrs.example.com/xapi.
	// Empty disables telemetry.
	Endpoint string
	Username string
	Password string

	// ActivityBase prefixes every activity IRI. Default: "https://quizpool.local".
	ActivityBase string

	Retry RetryConfig

	// Timeout bounds a single HTTP request. Default: 10s.
	Timeout time.Duration
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults and no endpoint.
func DefaultConfig() Config {
	return Config{
		ActivityBase: "https://quizpool.local",
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 500 * time.Millisecond,
			MaxWait:     5 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 10 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if e := os.Getenv("QUIZPOOL_LRS_ENDPOINT"); e != "" {
		cfg.Endpoint = e
	}
	if u := os.Getenv("QUIZPOOL_LRS_USERNAME"); u != "" {
		cfg.Username = u
	}
	if p := os.Getenv("QUIZPOOL_LRS_PASSWORD"); p != "" {
		cfg.Password = p
	}
	if a := os.Getenv("QUIZPOOL_LRS_ACTIVITY_BASE"); a != "" {
		cfg.ActivityBase = a
	}
	if t := os.Getenv("QUIZPOOL_LRS_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	return cfg
}

// Enabled reports whether an LRS endpoint is configured.
func (c Config) Enabled() bool {
	return c.Endpoint != ""
}

// Validate checks that a configured endpoint is an absolute http(s) URL.
func (c Config) Validate() error {
	if !c.Enabled() {
		return nil
	}
	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return fmt.Errorf("QUIZPOOL_LRS_ENDPOINT: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("QUIZPOOL_LRS_ENDPOINT must be an http(s) URL, got %q", c.Endpoint)
	}
	if c.Username == "" && c.Password != "" {
		return fmt.Errorf("QUIZPOOL_LRS_USERNAME is required when a password is set")
	}
	return nil
}
