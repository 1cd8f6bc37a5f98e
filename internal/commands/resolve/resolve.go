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

// Package resolve implements the resolve command.
package resolve

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tombee/ghrest/internal/commands/shared"
	"github.com/tombee/ghrest/internal/github"
)

type result struct {
	shared.JSONResponse
	BaseURL string `json:"base_url"`
	URL     string `json:"url"`
}

// NewCommand creates the resolve command.
func NewCommand() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   "resolve <path>",
		Short: "Print the API URL for a path",
		Long: `Resolve a REST path against the configured GitHub deployment.

github.com and gist.github.com map to api.github.com. Any other host is
treated as GitHub Enterprise Server and gets the /api/v3 prefix.

Examples:
  ghrest resolve /repos/octocat/hello-world
  ghrest resolve --base-url https://ghe.example.com repos/acme/tools`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := baseURL
			if base == "" {
				cfg, err := shared.LoadConfig()
				if err != nil {
					return err
				}
				base = cfg.BaseURL
			}

			resolved, err := github.ResolveURL(base, args[0])
			if err != nil {
				return err
			}

			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), result{
					JSONResponse: shared.JSONResponse{Version: "1.0", Command: "resolve", Success: true},
					BaseURL:      base,
					URL:          resolved,
				})
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), resolved)
			return err
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "GitHub base URL (default: from config)")

	return cmd
}
