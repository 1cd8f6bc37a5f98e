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

// Package tokens provides the access token providers used to authenticate
// GitHub REST calls: static tokens, GitHub App installation tokens, and
// installation tokens whose app credentials live in a secret store.
package tokens

import (
	"time"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

// DefaultRefreshBufferSeconds is how long before expiry an installation token
// is refreshed when no buffer is configured.
const DefaultRefreshBufferSeconds = 60

// Auth is one of AccessTokenAuth, AppInstallationAuth or
// AppInstallationSecretAuth.
type Auth interface {
	auth()
}

// AccessTokenAuth authenticates with a fixed token.
type AccessTokenAuth struct {
	Token string `json:"token" yaml:"token"`
}

// AppInstallationAuth authenticates as a GitHub App installation.
type AppInstallationAuth struct {
	// PrivateKey is the app's PEM-encoded RSA private key.
	PrivateKey string `json:"privateKey" yaml:"privateKey"`

	// ClientID is used as the JWT issuer.
	ClientID string `json:"clientId" yaml:"clientId"`

	// RefreshBufferSeconds is how long before expiry the cached installation
	// token is replaced. Zero means DefaultRefreshBufferSeconds.
	RefreshBufferSeconds int64 `json:"refreshBufferSeconds,omitempty" yaml:"refreshBufferSeconds,omitempty"`
}

// AppInstallationSecretAuth points at a secret holding a serialized
// AppInstallationAuth.
type AppInstallationSecretAuth struct {
	Org      string `json:"org" yaml:"org"`
	Name     string `json:"name" yaml:"name"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

func (AccessTokenAuth) auth()           {}
func (AppInstallationAuth) auth()       {}
func (AppInstallationSecretAuth) auth() {}

// RefreshBuffer returns the effective refresh buffer.
func (a AppInstallationAuth) RefreshBuffer() time.Duration {
	if a.RefreshBufferSeconds <= 0 {
		return DefaultRefreshBufferSeconds * time.Second
	}
	return time.Duration(a.RefreshBufferSeconds) * time.Second
}

// Validate checks that the app credentials are present.
func (a AppInstallationAuth) Validate() error {
	if a.ClientID == "" {
		return &ghrerrors.ConfigError{Key: "auth.appInstallation.clientId", Reason: "client id is required"}
	}
	if a.PrivateKey == "" {
		return &ghrerrors.ConfigError{Key: "auth.appInstallation.privateKey", Reason: "private key is required"}
	}
	return nil
}

// Validate checks that the secret coordinates are present.
func (a AppInstallationSecretAuth) Validate() error {
	if a.Org == "" {
		return &ghrerrors.ConfigError{Key: "auth.appInstallationSecret.org", Reason: "secret org is required"}
	}
	if a.Name == "" {
		return &ghrerrors.ConfigError{Key: "auth.appInstallationSecret.name", Reason: "secret name is required"}
	}
	return nil
}
