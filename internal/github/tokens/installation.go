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
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tombee/ghrest/internal/github"
	ghlog "github.com/tombee/ghrest/internal/log"
	ghrerrors "github.com/tombee/ghrest/pkg/errors"
	"github.com/tombee/ghrest/pkg/httpclient"
)

const sourceAppInstallation = "app_installation"

// InstallationToken is a short-lived installation access token.
type InstallationToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired reports whether token must be refreshed at now, i.e. whether it
// is missing or within buffer of its expiry.
func IsExpired(token *InstallationToken, buffer time.Duration, now time.Time) bool {
	if token == nil {
		return true
	}
	return !now.Before(token.ExpiresAt.Add(-buffer))
}

// AppInstallationProvider exchanges app JWTs for installation tokens and
// caches the result until it is about to expire. Refreshes are serialized so
// concurrent callers share one exchange.
type AppInstallationProvider struct {
	auth             AppInstallationAuth
	baseURL          string
	installationRepo string
	httpClient       *http.Client
	clientOpts       []github.Option
	logger           *slog.Logger
	now              func() time.Time

	mu    sync.Mutex
	token *InstallationToken
}

// NewAppInstallationProvider validates auth and opts. No network calls are
// made until the first Token call.
func NewAppInstallationProvider(auth AppInstallationAuth, opts Options) (*AppInstallationProvider, error) {
	if err := auth.Validate(); err != nil {
		return nil, err
	}
	if _, err := github.ResolveURL(opts.BaseURL, "/"); err != nil {
		return nil, err
	}
	if owner, name, ok := strings.Cut(opts.InstallationRepo, "/"); !ok || owner == "" || name == "" {
		return nil, &ghrerrors.ConfigError{
			Key:    "installation_repo",
			Reason: fmt.Sprintf("expected owner/name, got %q", opts.InstallationRepo),
		}
	}

	logger := ghlog.WithComponent(opts.logger(), "tokens")

	hc := opts.HTTPClient
	if hc == nil {
		cfg := httpclient.DefaultConfig()
		cfg.Logger = logger
		var err error
		hc, err = httpclient.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating http client: %w", err)
		}
	}

	return &AppInstallationProvider{
		auth:             auth,
		baseURL:          opts.BaseURL,
		installationRepo: opts.InstallationRepo,
		httpClient:       hc,
		clientOpts:       opts.ClientOptions,
		logger:           logger,
		now:              time.Now,
	}, nil
}

// Token implements github.AccessTokenProvider.
func (p *AppInstallationProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if !IsExpired(p.token, p.auth.RefreshBuffer(), now) {
		return p.token.Token, nil
	}

	p.token = nil
	token, err := p.exchange(ctx, now)
	if err != nil {
		refreshesTotal.WithLabelValues("failure").Inc()
		return "", &ghrerrors.TokenAcquisitionError{Source: sourceAppInstallation, Cause: err}
	}
	refreshesTotal.WithLabelValues("success").Inc()

	p.logger.Debug("installation token refreshed",
		"installation_repo", p.installationRepo,
		"expires_at", token.ExpiresAt)

	p.token = token
	return token.Token, nil
}

// exchange looks up the installation of the configured repository and creates
// a new access token for it, authenticating both calls with a fresh JWT.
func (p *AppInstallationProvider) exchange(ctx context.Context, now time.Time) (*InstallationToken, error) {
	signed, err := SignJWT(p.auth, now)
	if err != nil {
		return nil, err
	}

	opts := make([]github.Option, 0, len(p.clientOpts)+3)
	opts = append(opts, p.clientOpts...)
	opts = append(opts,
		github.WithHTTPClient(p.httpClient),
		github.WithLogger(p.logger),
		github.WithHeader(github.HeaderAPIVersion, github.APIVersion),
	)
	client, err := github.New(github.Endpoint{BaseURL: p.baseURL, Tokens: bearer(signed)}, opts...)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(ctx, &github.Request{
		Method: http.MethodGet,
		Path:   "/repos/" + p.installationRepo + "/installation",
	})
	if err != nil {
		return nil, fmt.Errorf("retrieving app installation: %w", err)
	}

	var installation struct {
		AccessTokensURL string `json:"access_tokens_url"`
	}
	if err := json.Unmarshal(resp.Body, &installation); err != nil {
		return nil, fmt.Errorf("decoding app installation: %w", err)
	}
	if installation.AccessTokensURL == "" {
		return nil, errors.New("app installation has no access_tokens_url")
	}

	resp, err = client.Do(ctx, &github.Request{
		Method: http.MethodPost,
		URL:    installation.AccessTokensURL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating installation access token: %w", err)
	}

	var token InstallationToken
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return nil, fmt.Errorf("decoding installation access token: %w", err)
	}
	if token.Token == "" {
		return nil, errors.New("installation access token response has no token")
	}
	if token.ExpiresAt.IsZero() {
		return nil, errors.New("installation access token response has no expires_at")
	}

	return &token, nil
}

// bearer hands a fixed credential to the exchange client.
type bearer string

func (b bearer) Token(context.Context) (string, error) {
	return string(b), nil
}
