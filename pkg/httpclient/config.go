package httpclient

import (
	"fmt"
	"log/slog"
	"time"
)

// Config configures the HTTP client with timeout and observability settings.
type Config struct {
	// ConnectTimeout bounds TCP connection establishment and the TLS handshake.
	// Default: 30s. Must be > 0.
	ConnectTimeout time.Duration

	// Timeout is the overall timeout of a single HTTP round trip, including
	// reading the response body.
	// Default: 30s. Must be > 0.
	Timeout time.Duration

	// UserAgent is the default User-Agent header value.
	// Required. Must be non-empty.
	UserAgent string

	// Logger receives one record per round trip. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the API client defaults.
func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 30 * time.Second,
		Timeout:        30 * time.Second,
		UserAgent:      "ghrest",
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.ConnectTimeout <= 0 {
		return fmt.Errorf("connect_timeout must be > 0, got %v", c.ConnectTimeout)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be > 0, got %v", c.Timeout)
	}

	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required and must be non-empty")
	}

	return nil
}
