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

package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

const sourceAppInstallationSecret = "app_installation_secret"

// SecretProvider resolves app credentials from a secret store on first use and
// then delegates to an AppInstallationProvider. The secret store is consulted
// at most once; a failed resolution is returned to every later caller.
type SecretProvider struct {
	auth AppInstallationSecretAuth
	opts Options

	once     sync.Once
	delegate *AppInstallationProvider
	err      error
}

// NewSecretProvider validates auth. The secret is not read until Token is called.
func NewSecretProvider(auth AppInstallationSecretAuth, opts Options) (*SecretProvider, error) {
	if err := auth.Validate(); err != nil {
		return nil, err
	}
	if opts.Secrets == nil {
		return nil, &ghrerrors.ConfigError{Key: "secrets", Reason: "a secret store is required for appInstallationSecret auth"}
	}
	return &SecretProvider{auth: auth, opts: opts}, nil
}

// Token implements github.AccessTokenProvider.
func (p *SecretProvider) Token(ctx context.Context) (string, error) {
	p.once.Do(func() {
		p.delegate, p.err = p.resolve(ctx)
	})
	if p.err != nil {
		return "", p.err
	}
	return p.delegate.Token(ctx)
}

func (p *SecretProvider) resolve(ctx context.Context) (*AppInstallationProvider, error) {
	path, err := p.opts.Secrets.ExportFile(ctx, p.auth.Org, p.auth.Name, p.auth.Password)
	if err != nil {
		return nil, &ghrerrors.TokenAcquisitionError{
			Source: sourceAppInstallationSecret,
			Cause:  fmt.Errorf("exporting secret %s/%s: %w", p.auth.Org, p.auth.Name, err),
		}
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ghrerrors.TokenAcquisitionError{Source: sourceAppInstallationSecret, Cause: err}
	}

	var auth AppInstallationAuth
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, &ghrerrors.TokenAcquisitionError{
			Source: sourceAppInstallationSecret,
			Cause:  fmt.Errorf("decoding secret %s/%s: %w", p.auth.Org, p.auth.Name, err),
		}
	}

	provider, err := NewAppInstallationProvider(auth, p.opts)
	if err != nil {
		return nil, &ghrerrors.TokenAcquisitionError{Source: sourceAppInstallationSecret, Cause: err}
	}

	p.opts.logger().Debug("resolved app credentials from secret store",
		"org", p.auth.Org,
		"name", p.auth.Name)

	return provider, nil
}
