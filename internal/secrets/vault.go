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
	"fmt"

	vaultapi "github.com/hashicorp/vault/api"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

const (
	defaultVaultMount = "secret"
	defaultVaultField = "value"
)

// VaultConfig configures the Vault store.
type VaultConfig struct {
	// Address of the Vault server. Falls back to VAULT_ADDR.
	Address string `yaml:"address,omitempty"`

	// Token used to authenticate. Falls back to VAULT_TOKEN.
	Token string `yaml:"token,omitempty"`

	// Mount is the KV v2 mount path. Defaults to "secret".
	Mount string `yaml:"mount,omitempty"`

	// Field is the key inside the secret data holding the value. Defaults to "value".
	Field string `yaml:"field,omitempty"`
}

// VaultStore reads secrets from a Vault KV v2 mount at <mount>/data/<org>/<name>.
type VaultStore struct {
	api   *vaultapi.Client
	mount string
	field string
}

// NewVaultStore creates a Vault store. No request is made until Read.
func NewVaultStore(cfg VaultConfig) (*VaultStore, error) {
	apiConfig := vaultapi.DefaultConfig()
	if apiConfig.Error != nil {
		return nil, &ghrerrors.ConfigError{Key: "secrets.vault", Reason: "invalid vault environment", Cause: apiConfig.Error}
	}
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}

	client, err := vaultapi.NewClient(apiConfig)
	if err != nil {
		return nil, &ghrerrors.ConfigError{Key: "secrets.vault.address", Reason: "failed to create vault client", Cause: err}
	}
	if cfg.Token != "" {
		client.SetToken(cfg.Token)
	}
	if client.Token() == "" {
		return nil, &ghrerrors.ConfigError{Key: "secrets.vault.token", Reason: "vault token is required"}
	}

	mount := cfg.Mount
	if mount == "" {
		mount = defaultVaultMount
	}
	field := cfg.Field
	if field == "" {
		field = defaultVaultField
	}

	return &VaultStore{api: client, mount: mount, field: field}, nil
}

// Name returns the backend identifier.
func (v *VaultStore) Name() string {
	return BackendVault
}

// Read returns the configured field of the KV v2 secret for org/name.
func (v *VaultStore) Read(ctx context.Context, org, name string) ([]byte, error) {
	if err := ValidateName(org, name); err != nil {
		return nil, err
	}

	fullPath := fmt.Sprintf("%s/data/%s/%s", v.mount, org, name)
	secret, err := v.api.Logical().ReadWithContext(ctx, fullPath)
	if err != nil {
		return nil, fmt.Errorf("vault read %s: %w", fullPath, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, fullPath)
	}

	// KV v2 wraps data in a "data" key; deleted versions have data: null
	dataValue, ok := secret.Data["data"]
	if !ok || dataValue == nil {
		return nil, fmt.Errorf("%w: %s", ErrSecretNotFound, fullPath)
	}
	data, ok := dataValue.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("vault read %s: unexpected data type %T", fullPath, dataValue)
	}

	value, ok := data[v.field]
	if !ok {
		return nil, fmt.Errorf("%w: %s has no field %q", ErrSecretNotFound, fullPath, v.field)
	}
	s, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("vault read %s: field %q is %T, want string", fullPath, v.field, value)
	}

	return []byte(s), nil
}
