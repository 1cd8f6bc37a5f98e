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
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tombee/ghrest/internal/github"
	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

// SecretExporter materializes an organization secret as a local file.
type SecretExporter interface {
	// ExportFile writes the secret to a file and returns its path. password
	// may be empty for unprotected secrets.
	ExportFile(ctx context.Context, org, name, password string) (string, error)
}

// Options carries what the installation providers need beyond the Auth itself.
type Options struct {
	// BaseURL is the GitHub deployment the app is installed on.
	BaseURL string

	// InstallationRepo is the "owner/name" repository whose installation is
	// used for the token exchange.
	InstallationRepo string

	// Secrets resolves AppInstallationSecretAuth.
	Secrets SecretExporter

	// HTTPClient is shared by all exchange calls. Optional.
	HTTPClient *http.Client

	// ClientOptions are applied to the exchange client (correlation id,
	// product, logger).
	ClientOptions []github.Option

	Logger *slog.Logger
}

// FromAuth builds the provider for auth.
func FromAuth(auth Auth, opts Options) (github.AccessTokenProvider, error) {
	switch a := auth.(type) {
	case AccessTokenAuth:
		return NewStaticToken(a.Token)
	case AppInstallationAuth:
		return NewAppInstallationProvider(a, opts)
	case AppInstallationSecretAuth:
		return NewSecretProvider(a, opts)
	case nil:
		return nil, &ghrerrors.ConfigError{Key: "auth", Reason: "no authentication method configured"}
	default:
		return nil, &ghrerrors.ConfigError{Key: "auth", Reason: fmt.Sprintf("unsupported authentication type %T", auth)}
	}
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
