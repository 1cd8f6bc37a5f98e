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

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

// StaticToken always returns the same token.
type StaticToken struct {
	token string
}

// NewStaticToken returns a provider for token, which must not be empty.
func NewStaticToken(token string) (*StaticToken, error) {
	if token == "" {
		return nil, &ghrerrors.ConfigError{Key: "auth.accessToken.token", Reason: "token is required"}
	}
	return &StaticToken{token: token}, nil
}

// Token implements github.AccessTokenProvider.
func (s *StaticToken) Token(context.Context) (string, error) {
	return s.token, nil
}
