// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads ghrest configuration from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"

	"github.com/tombee/ghrest/internal/github"
	"github.com/tombee/ghrest/internal/github/tokens"
	ghlog "github.com/tombee/ghrest/internal/log"
	"github.com/tombee/ghrest/internal/secrets"
	"github.com/tombee/ghrest/internal/tracing"
	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "https://github.com"

// Config is the ghrest configuration.
type Config struct {
	// BaseURL is the GitHub deployment, e.g. https://github.com or an
	// Enterprise Server URL.
	BaseURL string `yaml:"base_url"`

	// InstallationRepo is the "owner/name" repository used to look up the
	// GitHub App installation.
	InstallationRepo string `yaml:"installation_repo,omitempty"`

	// CorrelationID identifies the client session. Generated when empty.
	CorrelationID string `yaml:"correlation_id,omitempty"`

	// UserAgentProduct is the product part of the User-Agent header.
	UserAgentProduct string `yaml:"user_agent_product,omitempty"`

	RateLimit RateLimitConfig `yaml:"rate_limit,omitempty"`
	Auth      AuthConfig      `yaml:"auth"`
	Secrets   secrets.Config  `yaml:"secrets,omitempty"`
	Log       ghlog.Config    `yaml:"log,omitempty"`
	Tracing   tracing.Config  `yaml:"tracing,omitempty"`

	// AccessToken is the pre-auth-block way of configuring a static token.
	//
	// Deprecated: use auth.accessToken.token.
	AccessToken string `yaml:"access_token,omitempty"`

	warnings []string
}

// RateLimitConfig configures the client-side request limiter.
type RateLimitConfig struct {
	// RequestsPerSecond of zero disables the limiter.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// AuthConfig holds the authentication blocks. At least one must be set.
type AuthConfig struct {
	AccessToken           *tokens.AccessTokenAuth           `yaml:"accessToken,omitempty"`
	AppInstallation       *tokens.AppInstallationAuth       `yaml:"appInstallation,omitempty"`
	AppInstallationSecret *tokens.AppInstallationSecretAuth `yaml:"appInstallationSecret,omitempty"`
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		BaseURL:          DefaultBaseURL,
		UserAgentProduct: github.DefaultProduct,
		RateLimit: RateLimitConfig{
			Burst: 1,
		},
		Secrets: secrets.Config{
			Backend: secrets.BackendFile,
		},
		Log:     *ghlog.DefaultConfig(),
		Tracing: tracing.DefaultConfig(),
	}
}

// Load loads configuration from a YAML file and the environment.
// Environment variables take precedence over file-based configuration.
//
// If configPath is empty, GHREST_CONFIG is consulted, then the default
// location. A missing default file is not an error.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	explicit := true
	if configPath == "" {
		configPath = os.Getenv("GHREST_CONFIG")
	}
	if configPath == "" {
		explicit = false
		if p, err := ConfigPath(); err == nil {
			configPath = p
		}
	}

	if configPath != "" {
		if err := cfg.loadFromFile(configPath); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, &ghrerrors.ConfigError{
					Key:    "config_file",
					Reason: fmt.Sprintf("failed to load from %s", configPath),
					Cause:  err,
				}
			}
		}
	}

	cfg.applyDefaults()
	cfg.loadFromEnv()
	cfg.migrateDeprecated()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Warnings returns non-fatal problems found while loading.
func (c *Config) Warnings() []string {
	return c.warnings
}

// loadFromFile loads configuration from a YAML file.
func (c *Config) loadFromFile(path string) error {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	return nil
}

// applyDefaults fills in zero values left by a minimal config file.
func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.UserAgentProduct == "" {
		c.UserAgentProduct = github.DefaultProduct
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 1
	}
	if c.Secrets.Backend == "" {
		c.Secrets.Backend = secrets.BackendFile
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = ghlog.FormatJSON
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.UserAgentProduct
	}
	if c.Tracing.Exporter.Type == "" {
		c.Tracing.Exporter.Type = tracing.ExporterConsole
	}
}

// loadFromEnv overlays environment variables.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("GHREST_BASE_URL"); val != "" {
		c.BaseURL = val
	}
	if val := os.Getenv("GHREST_INSTALLATION_REPO"); val != "" {
		c.InstallationRepo = val
	}
	if val := os.Getenv("GHREST_TOKEN"); val != "" {
		c.Auth.AccessToken = &tokens.AccessTokenAuth{Token: val}
	}
	if val := os.Getenv("VAULT_ADDR"); val != "" && c.Secrets.Vault.Address == "" {
		c.Secrets.Vault.Address = val
	}
	if val := os.Getenv("VAULT_TOKEN"); val != "" && c.Secrets.Vault.Token == "" {
		c.Secrets.Vault.Token = val
	}

	ghlog.ApplyEnv(&c.Log)
}

// migrateDeprecated translates the top-level access_token key.
func (c *Config) migrateDeprecated() {
	if c.AccessToken == "" {
		return
	}
	c.warnings = append(c.warnings, "access_token is deprecated, use auth.accessToken.token")
	if c.Auth.AccessToken == nil {
		c.Auth.AccessToken = &tokens.AccessTokenAuth{Token: c.AccessToken}
	}
	c.AccessToken = ""
}

// SelectAuth returns the authentication method to use. When several blocks
// are configured the priority is accessToken, appInstallation,
// appInstallationSecret, and the ignored blocks are logged.
func (c *Config) SelectAuth(logger *slog.Logger) (tokens.Auth, error) {
	var (
		selected tokens.Auth
		name     string
		ignored  []string
	)

	consider := func(block string, present bool, auth func() tokens.Auth) {
		if !present {
			return
		}
		if selected != nil {
			ignored = append(ignored, block)
			return
		}
		selected, name = auth(), block
	}

	consider("accessToken", c.Auth.AccessToken != nil, func() tokens.Auth { return *c.Auth.AccessToken })
	consider("appInstallation", c.Auth.AppInstallation != nil, func() tokens.Auth { return *c.Auth.AppInstallation })
	consider("appInstallationSecret", c.Auth.AppInstallationSecret != nil, func() tokens.Auth { return *c.Auth.AppInstallationSecret })

	if selected == nil {
		return nil, &ghrerrors.ConfigError{
			Key:    "auth",
			Reason: "one of accessToken, appInstallation or appInstallationSecret is required",
		}
	}

	if len(ignored) > 0 && logger != nil {
		logger.Warn("multiple auth methods configured",
			"using", name,
			"ignored", strings.Join(ignored, ","))
	}

	return selected, nil
}

// Limiter returns the configured rate limiter, or nil when disabled.
func (r RateLimitConfig) Limiter() *rate.Limiter {
	if r.RequestsPerSecond <= 0 {
		return nil
	}
	burst := r.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(r.RequestsPerSecond), burst)
}
