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

// Package download implements the download command.
package download

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/ghrest/internal/commands/shared"
	"github.com/tombee/ghrest/internal/github"
	"github.com/tombee/ghrest/internal/github/tokens"
	"github.com/tombee/ghrest/pkg/httpclient"
)

// errorBodyLimit caps how much of a failed response is read for the error message.
const errorBodyLimit = 1 << 20

type result struct {
	shared.JSONResponse
	URL    string `json:"url"`
	Output string `json:"output"`
	Bytes  int64  `json:"bytes"`
}

// NewCommand creates the download command.
func NewCommand() *cobra.Command {
	var (
		output string
		accept string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "download <path>",
		Short: "Stream a response body to a file or stdout",
		Long: `Download a response body without buffering it, such as a repository
archive or the raw contents of a file.

The request is a single authorized GET. It is not retried, and the body is
written as received.

Examples:
  ghrest download /repos/octocat/hello-world/tarball/main -o hello.tar.gz
  ghrest download /repos/octocat/hello-world/contents/README.md --accept application/vnd.github.raw+json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			toStdout := output == "" || output == "-"
			if toStdout && shared.GetJSON() {
				return shared.NewUsageError("--json requires --output", nil)
			}

			query, err := shared.ParseParams(params)
			if err != nil {
				return err
			}

			session, err := shared.OpenSession(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			req := &github.Request{Params: query}
			if strings.HasPrefix(args[0], "http://") || strings.HasPrefix(args[0], "https://") {
				req.URL = args[0]
			} else {
				req.Path = args[0]
			}
			target, err := session.Client.RequestURL(req)
			if err != nil {
				return err
			}

			baseCfg := httpclient.DefaultConfig()
			baseCfg.UserAgent = session.Client.UserAgent()
			baseCfg.Logger = session.Logger
			base, err := httpclient.New(baseCfg)
			if err != nil {
				return err
			}
			// Bodies may take longer than one API round trip; headers are still bounded.
			base.Timeout = 0
			hc := tokens.NewHTTPClient(ctx, session.Tokens, base)

			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return fmt.Errorf("building request: %w", err)
			}
			httpReq.Header.Set("Accept", accept)
			httpReq.Header.Set("User-Agent", session.Client.UserAgent())
			httpReq.Header.Set(github.HeaderAPIVersion, github.APIVersion)

			resp, err := hc.Do(httpReq)
			if err != nil {
				return fmt.Errorf("download failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode < 200 || resp.StatusCode >= 300 {
				body, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
				return github.Classify(resp.StatusCode, resp.Header, body)
			}

			var w io.Writer = cmd.OutOrStdout()
			if !toStdout {
				f, err := os.Create(output)
				if err != nil {
					return shared.NewUsageError("failed to create output file", err)
				}
				defer f.Close()
				w = f
			}

			n, err := io.Copy(w, resp.Body)
			if err != nil {
				if !toStdout {
					os.Remove(output)
				}
				return fmt.Errorf("download interrupted after %d bytes: %w", n, err)
			}
			session.Logger.Debug("download complete", "url", target, "bytes", n)

			if toStdout {
				return nil
			}
			if shared.GetJSON() {
				return shared.EmitJSON(cmd.OutOrStdout(), result{
					JSONResponse: shared.JSONResponse{Version: "1.0", Command: "download", Success: true},
					URL:          target,
					Output:       output,
					Bytes:        n,
				})
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", n, output)
			return err
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "File to write the body to (default stdout)")
	cmd.Flags().StringVar(&accept, "accept", "application/vnd.github+json", "Accept header to send")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter key=value (repeatable)")

	return cmd
}
