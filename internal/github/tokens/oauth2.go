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
	"net/http"

	"golang.org/x/oauth2"

	"github.com/tombee/ghrest/internal/github"
)

// TokenSource adapts provider to oauth2.TokenSource. Caching is left to the
// provider, so every call reaches it.
func TokenSource(ctx context.Context, provider github.AccessTokenProvider) oauth2.TokenSource {
	return &providerSource{ctx: ctx, provider: provider}
}

// NewHTTPClient returns an *http.Client that authorizes every request with a
// token from provider. base supplies the underlying transport and timeout;
// nil uses http.DefaultTransport.
// Every request reaches provider; tokens carry no expiry, so they must not
// pass through oauth2.ReuseTokenSource.
func NewHTTPClient(ctx context.Context, provider github.AccessTokenProvider, base *http.Client) *http.Client {
	hc := &http.Client{}
	if base != nil {
		*hc = *base
	}
	hc.Transport = &oauth2.Transport{
		Source: TokenSource(ctx, provider),
		Base:   hc.Transport,
	}
	return hc
}

type providerSource struct {
	ctx      context.Context
	provider github.AccessTokenProvider
}

func (s *providerSource) Token() (*oauth2.Token, error) {
	token, err := s.provider.Token(s.ctx)
	if err != nil {
		return nil, err
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}
