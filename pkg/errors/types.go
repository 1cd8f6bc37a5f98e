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

package errors

import (
	"fmt"
)

// ConfigError represents configuration problems.
// Use this for malformed base URLs, missing auth settings, or invalid config values.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "base_url", "auth")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	msg := "config error"
	if e.Key != "" {
		msg = fmt.Sprintf("config error at %s", e.Key)
	}
	msg = fmt.Sprintf("%s: %s", msg, e.Reason)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *ConfigError) ErrorType() string { return "config" }

// IsRetryable implements ErrorClassifier.
func (e *ConfigError) IsRetryable() bool { return false }

// CryptoError represents unusable key material or a signing failure.
type CryptoError struct {
	// Operation is what failed (e.g., "parse private key", "sign jwt")
	Operation string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *CryptoError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("crypto error: %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("crypto error: %s", e.Operation)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CryptoError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *CryptoError) ErrorType() string { return "crypto" }

// IsRetryable implements ErrorClassifier.
func (e *CryptoError) IsRetryable() bool { return false }

// TokenAcquisitionError is returned when an access token could not be obtained,
// for example when the installation token exchange failed.
type TokenAcquisitionError struct {
	// Source identifies the token source (e.g., "app_installation")
	Source string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface.
func (e *TokenAcquisitionError) Error() string {
	return fmt.Sprintf("failed to acquire %s token: %v", e.Source, e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *TokenAcquisitionError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *TokenAcquisitionError) ErrorType() string { return "token_acquisition" }

// IsRetryable implements ErrorClassifier.
func (e *TokenAcquisitionError) IsRetryable() bool { return false }

// UnexpectedShapeError is returned when a response body is valid but does not
// have the JSON shape the caller asked for.
type UnexpectedShapeError struct {
	// Expected is the required shape (e.g., "object", "array")
	Expected string

	// Actual describes what was received (e.g., "array", "empty body")
	Actual string
}

// Error implements the error interface.
func (e *UnexpectedShapeError) Error() string {
	return fmt.Sprintf("unexpected response shape: expected %s, got %s", e.Expected, e.Actual)
}

// ErrorType implements ErrorClassifier.
func (e *UnexpectedShapeError) ErrorType() string { return "unexpected_shape" }

// IsRetryable implements ErrorClassifier.
func (e *UnexpectedShapeError) IsRetryable() bool { return false }
