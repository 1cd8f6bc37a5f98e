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

package secrets

import (
	"context"
	"errors"
	"fmt"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

var (
	// ErrSecretNotFound is returned when a secret does not exist in the store.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrBackendUnavailable is returned when a store cannot be used in the current environment.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrReadOnlyBackend is returned when writing to a store that does not support it.
	ErrReadOnlyBackend = errors.New("backend is read-only")
)

// Backend names accepted by New.
const (
	BackendFile     = "file"
	BackendKeychain = "keychain"
	BackendVault    = "vault"
)

// Store reads organization-scoped secrets.
type Store interface {
	// Name returns the backend identifier (e.g., "file", "vault").
	Name() string

	// Read returns the secret value. Returns ErrSecretNotFound if not present.
	Read(ctx context.Context, org, name string) ([]byte, error)
}

// Writer is implemented by stores that accept new secrets.
type Writer interface {
	Write(ctx context.Context, org, name string, value []byte) error
}

// Config selects and configures a Store.
type Config struct {
	// Backend is one of "file", "keychain" or "vault". Defaults to "file".
	Backend string `yaml:"backend,omitempty"`

	// Dir is the root of the file backend.
	Dir string `yaml:"dir,omitempty"`

	Vault VaultConfig `yaml:"vault,omitempty"`
}

// New creates the store described by cfg.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendFile:
		return NewFileStore(cfg.Dir)
	case BackendKeychain:
		return NewKeychainStore(), nil
	case BackendVault:
		return NewVaultStore(cfg.Vault)
	default:
		return nil, &ghrerrors.ConfigError{
			Key:    "secrets.backend",
			Reason: fmt.Sprintf("unknown backend %q (want file, keychain or vault)", cfg.Backend),
		}
	}
}
