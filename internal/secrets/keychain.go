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
	"strings"

	"github.com/zalando/go-keyring"
)

// keychainService is the service name used for keychain entries.
const keychainService = "ghrest"

// KeychainStore keeps secrets in the system keychain.
// Supported platforms:
//   - macOS: Keychain Access
//   - Linux: Secret Service API (GNOME Keyring, KWallet)
//   - Windows: Credential Manager
type KeychainStore struct{}

// NewKeychainStore creates a keychain store.
func NewKeychainStore() *KeychainStore {
	return &KeychainStore{}
}

// Name returns the backend identifier.
func (k *KeychainStore) Name() string {
	return BackendKeychain
}

// Read returns the keychain entry for org/name.
func (k *KeychainStore) Read(ctx context.Context, org, name string) ([]byte, error) {
	if err := ValidateName(org, name); err != nil {
		return nil, err
	}

	value, err := keyring.Get(keychainService, keychainUser(org, name))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", ErrSecretNotFound, org, name)
		}
		if isKeychainUnavailableError(err) {
			return nil, fmt.Errorf("%w: %s", ErrBackendUnavailable, err.Error())
		}
		return nil, fmt.Errorf("keychain error: %w", err)
	}

	return []byte(value), nil
}

// Write stores value in the keychain entry for org/name.
func (k *KeychainStore) Write(ctx context.Context, org, name string, value []byte) error {
	if err := ValidateName(org, name); err != nil {
		return err
	}

	if err := keyring.Set(keychainService, keychainUser(org, name), string(value)); err != nil {
		if isKeychainUnavailableError(err) {
			return fmt.Errorf("%w: %s", ErrBackendUnavailable, err.Error())
		}
		return fmt.Errorf("keychain error: %w", err)
	}

	return nil
}

func keychainUser(org, name string) string {
	return org + "/" + name
}

// isKeychainUnavailableError checks if an error indicates the keychain is locked or inaccessible.
func isKeychainUnavailableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())

	unavailableIndicators := []string{
		"locked",
		"cannot access",
		"permission denied",
		"failed to unlock",
		"user interaction required",
		"secret service",
		"dbus",
		"user canceled",
	}

	for _, indicator := range unavailableIndicators {
		if strings.Contains(errStr, indicator) {
			return true
		}
	}

	return false
}
