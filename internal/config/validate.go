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

package config

import (
	"fmt"
	"strings"

	"github.com/tombee/ghrest/internal/github"
	ghlog "github.com/tombee/ghrest/internal/log"
	"github.com/tombee/ghrest/internal/secrets"
	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

// Validate checks that the configuration is usable. Auth blocks are checked
// for shape only; at least one is required.
func (c *Config) Validate() error {
	if _, err := github.ResolveURL(c.BaseURL, "/"); err != nil {
		return err
	}

	if c.InstallationRepo != "" {
		owner, name, ok := strings.Cut(c.InstallationRepo, "/")
		if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
			return &ghrerrors.ConfigError{
				Key:    "installation_repo",
				Reason: fmt.Sprintf("expected owner/name, got %q", c.InstallationRepo),
			}
		}
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return &ghrerrors.ConfigError{
			Key:    "rate_limit.requests_per_second",
			Reason: fmt.Sprintf("must not be negative, got %v", c.RateLimit.RequestsPerSecond),
		}
	}

	if err := c.validateAuth(); err != nil {
		return err
	}

	switch c.Secrets.Backend {
	case secrets.BackendFile, secrets.BackendKeychain, secrets.BackendVault:
	default:
		return &ghrerrors.ConfigError{
			Key:    "secrets.backend",
			Reason: fmt.Sprintf("must be one of [file, keychain, vault], got %q", c.Secrets.Backend),
		}
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return &ghrerrors.ConfigError{
			Key:    "log.level",
			Reason: fmt.Sprintf("must be one of [trace, debug, info, warn, error], got %q", c.Log.Level),
		}
	}
	if c.Log.Format != ghlog.FormatJSON && c.Log.Format != ghlog.FormatText {
		return &ghrerrors.ConfigError{
			Key:    "log.format",
			Reason: fmt.Sprintf("must be one of [json, text], got %q", c.Log.Format),
		}
	}

	if err := c.Tracing.Validate(); err != nil {
		return &ghrerrors.ConfigError{Key: "tracing", Reason: err.Error()}
	}

	return nil
}

func (c *Config) validateAuth() error {
	a := c.Auth
	if a.AccessToken == nil && a.AppInstallation == nil && a.AppInstallationSecret == nil {
		return &ghrerrors.ConfigError{
			Key:    "auth",
			Reason: "one of accessToken, appInstallation or appInstallationSecret is required",
		}
	}

	if a.AccessToken != nil && a.AccessToken.Token == "" {
		return &ghrerrors.ConfigError{Key: "auth.accessToken.token", Reason: "token is required"}
	}
	if a.AppInstallation != nil {
		if err := a.AppInstallation.Validate(); err != nil {
			return err
		}
	}
	if a.AppInstallationSecret != nil {
		if err := a.AppInstallationSecret.Validate(); err != nil {
			return err
		}
	}

	if (a.AppInstallation != nil || a.AppInstallationSecret != nil) && a.AccessToken == nil && c.InstallationRepo == "" {
		return &ghrerrors.ConfigError{Key: "installation_repo", Reason: "required for app installation auth"}
	}

	return nil
}
