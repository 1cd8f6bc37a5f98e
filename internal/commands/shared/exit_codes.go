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
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tombee/ghrest/internal/github"
	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

const (
	ExitSuccess = 0
	ExitGeneral = 1
	ExitConfig  = 2
	ExitAPI     = 3
)

// ExitError carries an explicit exit code.
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUsageError reports bad command-line input with the configuration exit code.
func NewUsageError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitConfig, Message: msg, Cause: cause}
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var cfgErr *ghrerrors.ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfig
	}

	var apiErr *github.APIError
	if errors.As(err, &apiErr) {
		return ExitAPI
	}

	return ExitGeneral
}

// PrintError writes err to w, as JSON when asJSON is set, and returns the
// exit code for it.
func PrintError(w io.Writer, command string, err error, asJSON bool) int {
	code := ExitCode(err)
	if asJSON {
		_ = EmitJSONError(w, command, JSONError{
			Code:    ghrerrors.Classify(err),
			Message: err.Error(),
		})
		return code
	}
	fmt.Fprintln(w, "Error:", err.Error())
	return code
}

// HandleExitError prints err and exits with its exit code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(PrintError(os.Stderr, "", err, GetJSON()))
}
