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

// Package token implements the token command.
package token

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/ghrest/internal/commands/shared"
	ghlog "github.com/tombee/ghrest/internal/log"
)

type result struct {
	shared.JSONResponse
	Token  string `json:"token"`
	Masked bool   `json:"masked"`
}

// NewCommand creates the token command.
func NewCommand() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Acquire an access token with the configured auth",
		Long: `Acquire an access token using the configured authentication method and
print it. For GitHub App auth this performs the installation token exchange.

The token is masked unless --show is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			session, err := shared.OpenSession(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			tok, err := session.Tokens.Token(ctx)
			if err != nil {
				return err
			}

			display := tok
			if !show {
				display = ghlog.SanitizeSecret(tok)
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), result{
					JSONResponse: shared.JSONResponse{Version: "1.0", Command: "token", Success: true},
					Token:        display,
					Masked:       !show,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), display)
			return err
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "Print the token unmasked")

	return cmd
}
