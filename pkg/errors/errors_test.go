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

package errors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

func TestWrap(t *testing.T) {
	original := errors.New("root cause")

	wrapped := ghrerrors.Wrap(original, "resolving url")
	assert.EqualError(t, wrapped, "resolving url: root cause")
	assert.ErrorIs(t, wrapped, original)

	assert.Nil(t, ghrerrors.Wrap(nil, "context"))
	assert.Nil(t, ghrerrors.Wrapf(nil, "loading %s", "x"))
	assert.EqualError(t, ghrerrors.Wrapf(original, "loading %s", "cfg.yaml"), "loading cfg.yaml: root cause")
}

func TestConfigError(t *testing.T) {
	cause := errors.New("missing scheme")
	err := &ghrerrors.ConfigError{Key: "base_url", Reason: "invalid base URL", Cause: cause}

	assert.Equal(t, "config error at base_url: invalid base URL: missing scheme", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.False(t, err.IsRetryable())

	noKey := &ghrerrors.ConfigError{Reason: "no auth configured"}
	assert.Equal(t, "config error: no auth configured", noKey.Error())
}

func TestTokenAcquisitionError_UnwrapsToCryptoError(t *testing.T) {
	crypto := &ghrerrors.CryptoError{Operation: "parse private key", Cause: errors.New("bad pem")}
	err := fmt.Errorf("getting token: %w", &ghrerrors.TokenAcquisitionError{Source: "app_installation", Cause: crypto})

	var tokenErr *ghrerrors.TokenAcquisitionError
	assert.True(t, errors.As(err, &tokenErr))

	var cryptoErr *ghrerrors.CryptoError
	assert.True(t, errors.As(err, &cryptoErr))
	assert.Equal(t, "parse private key", cryptoErr.Operation)
	assert.Contains(t, err.Error(), "bad pem")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config", &ghrerrors.ConfigError{Reason: "x"}, "config"},
		{"crypto wrapped", fmt.Errorf("ctx: %w", &ghrerrors.CryptoError{Operation: "sign"}), "crypto"},
		{"shape", &ghrerrors.UnexpectedShapeError{Expected: "object", Actual: "array"}, "unexpected_shape"},
		{"token", &ghrerrors.TokenAcquisitionError{Source: "s", Cause: errors.New("x")}, "token_acquisition"},
		{"plain", errors.New("plain"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ghrerrors.Classify(tt.err))
		})
	}
}
