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

package shared

import (
	"context"
	"io"
	"log/slog"

	"github.com/tombee/ghrest/internal/config"
	"github.com/tombee/ghrest/internal/github"
	"github.com/tombee/ghrest/internal/github/tokens"
	ghlog "github.com/tombee/ghrest/internal/log"
	"github.com/tombee/ghrest/internal/secrets"
	"github.com/tombee/ghrest/internal/tracing"
)

// Session is a configured client plus the pieces it was built from.
type Session struct {
	Config *config.Config
	Logger *slog.Logger
	Tokens github.AccessTokenProvider
	Client *github.Client

	shutdown tracing.ShutdownFunc
}

// LoadConfig loads configuration from the --config path (or its fallbacks).
func LoadConfig() (*config.Config, error) {
	return config.Load(GetConfigPath())
}

// NewLogger builds the CLI logger writing to w. --verbose forces debug.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	logCfg := cfg.Log
	logCfg.Output = w
	if GetVerbose() {
		logCfg.Level = "debug"
	}
	return ghlog.New(&logCfg)
}

// OpenSession loads configuration and builds a client from it. Logs and
// console-exported spans go to errOut. Callers must Close the session.
func OpenSession(ctx context.Context, errOut io.Writer) (*Session, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg, errOut)
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	traceCfg := cfg.Tracing
	traceCfg.ServiceVersion, _, _ = GetVersion()
	shutdown, err := tracing.Setup(ctx, traceCfg, errOut)
	if err != nil {
		return nil, err
	}

	s := &Session{Config: cfg, Logger: logger, shutdown: shutdown}
	if err := s.connect(); err != nil {
		_ = shutdown(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Session) connect() error {
	cfg := s.Config

	auth, err := cfg.SelectAuth(s.Logger)
	if err != nil {
		return err
	}

	// One id for the session so exchange calls share it.
	correlationID := tracing.CorrelationID(cfg.CorrelationID)
	if correlationID == "" {
		correlationID = tracing.NewCorrelationID()
	}

	clientOpts := []github.Option{
		github.WithCorrelationID(correlationID),
		github.WithProduct(cfg.UserAgentProduct),
		github.WithLogger(s.Logger),
	}

	opts := tokens.Options{
		BaseURL:          cfg.BaseURL,
		InstallationRepo: cfg.InstallationRepo,
		ClientOptions:    clientOpts,
		Logger:           s.Logger,
	}
	if _, ok := auth.(tokens.AppInstallationSecretAuth); ok {
		store, err := secrets.New(cfg.Secrets)
		if err != nil {
			return err
		}
		opts.Secrets = &secrets.Exporter{Store: store}
	}

	provider, err := tokens.FromAuth(auth, opts)
	if err != nil {
		return err
	}

	client, err := github.New(
		github.Endpoint{BaseURL: cfg.BaseURL, Tokens: provider},
		append(clientOpts, github.WithRateLimiter(cfg.RateLimit.Limiter()))...,
	)
	if err != nil {
		return err
	}

	s.Tokens = provider
	s.Client = client
	return nil
}

// Close flushes exported spans.
func (s *Session) Close(ctx context.Context) error {
	if s.shutdown == nil {
		return nil
	}
	return s.shutdown(ctx)
}
