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

// Package request implements the request command.
package request

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tombee/ghrest/internal/commands/shared"
	"github.com/tombee/ghrest/internal/github"
	ghlog "github.com/tombee/ghrest/internal/log"
)

// Response shapes accepted by --expect.
const (
	expectObject = "object"
	expectArray  = "array"
	expectNone   = "none"
)

type result struct {
	shared.JSONResponse
	Status   int             `json:"status,omitempty"`
	Attempts int             `json:"attempts,omitempty"`
	Body     json.RawMessage `json:"body,omitempty"`
}

// NewCommand creates the request command.
func NewCommand() *cobra.Command {
	var (
		data   string
		params []string
		expect string
	)

	cmd := &cobra.Command{
		Use:   "request <METHOD> <path>",
		Short: "Send an API request through the retrying client",
		Long: `Send a request to the GitHub REST API and print the JSON response.

GET, HEAD, PUT, DELETE and OPTIONS requests are retried on 429, 500, 502
and 503 responses, honouring Retry-After and X-RateLimit-Reset.

The path may be an absolute URL, which is used as-is.

--expect checks the shape of a successful response: "object" and "array"
fail unless the body is a JSON object or an array of objects, and "none"
discards the body.

Examples:
  ghrest request GET /repos/octocat/hello-world
  ghrest request GET /repos/octocat/hello-world/pulls --param state=open
  ghrest request POST /repos/acme/tools/issues --data '{"title":"Flaky test"}'
  ghrest request POST /repos/acme/tools/issues --data @issue.json
  ghrest request DELETE /repos/acme/tools/labels/stale --expect none`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			query, err := shared.ParseParams(params)
			if err != nil {
				return err
			}
			absolute := strings.HasPrefix(args[1], "http://") || strings.HasPrefix(args[1], "https://")
			switch expect {
			case "":
			case expectObject, expectArray, expectNone:
				if absolute || len(query) > 0 {
					return shared.NewUsageError("--expect takes a relative path and no --param", nil)
				}
			default:
				return shared.NewUsageError(fmt.Sprintf("--expect must be one of [object, array, none], got %q", expect), nil)
			}
			body, err := parseBody(data)
			if err != nil {
				return err
			}

			session, err := shared.OpenSession(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer session.Close(ctx)

			if expect != "" {
				shaped, err := sendShaped(ctx, session.Client, expect, args[0], args[1], body)
				if err != nil {
					return explain(session, err)
				}
				return printShaped(cmd, shaped)
			}

			req := &github.Request{Method: args[0], Params: query, Body: body}
			if absolute {
				req.URL = args[1]
			} else {
				req.Path = args[1]
			}

			resp, err := session.Client.Do(ctx, req)
			if err != nil {
				return explain(session, err)
			}

			return printResponse(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body, or @file to read it from a file")
	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "Query parameter key=value (repeatable)")
	cmd.Flags().StringVar(&expect, "expect", "", "Required response shape: object, array or none")

	return cmd
}

// parseBody decodes the --data value so it is re-encoded canonically.
func parseBody(data string) (any, error) {
	if data == "" {
		return nil, nil
	}

	raw := []byte(data)
	if path, ok := strings.CutPrefix(data, "@"); ok {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, shared.NewUsageError("failed to read request body", err)
		}
		raw = content
	}

	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, shared.NewUsageError("request body is not valid JSON", err)
	}
	return body, nil
}

// sendShaped runs the call through the client helper for the expected shape.
// A nil result means the body was discarded.
func sendShaped(ctx context.Context, client *github.Client, expect, method, path string, body any) (any, error) {
	switch expect {
	case expectObject:
		return client.SingleObjectResult(ctx, method, path, body)
	case expectArray:
		return client.SingleArrayResult(ctx, method, path, body)
	default:
		return nil, client.VoidResult(ctx, method, path, body)
	}
}

// explain adds a hint for 404s, which GitHub also returns for resources the
// token is not allowed to see.
func explain(session *shared.Session, err error) error {
	var apiErr *github.APIError
	if errors.As(err, &apiErr) && apiErr.IsNotFound() {
		session.Logger.Warn("resource not found or not visible to the configured token",
			ghlog.RequestIDKey, apiErr.RequestID)
	}
	return err
}

func printShaped(cmd *cobra.Command, shaped any) error {
	out := cmd.OutOrStdout()

	var body json.RawMessage
	if shaped != nil {
		encoded, err := json.Marshal(shaped)
		if err != nil {
			return fmt.Errorf("failed to format response: %w", err)
		}
		body = encoded
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, result{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "request", Success: true},
			Body:         body,
		})
	}
	if body == nil {
		return nil
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	_, err := fmt.Fprintln(out, pretty.String())
	return err
}

func printResponse(cmd *cobra.Command, resp *github.Response) error {
	out := cmd.OutOrStdout()

	var body json.RawMessage
	if len(resp.Body) > 0 && json.Valid(resp.Body) {
		body = resp.Body
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, result{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "request", Success: true},
			Status:       resp.StatusCode,
			Attempts:     resp.Attempts,
			Body:         body,
		})
	}

	if len(resp.Body) == 0 {
		return nil
	}
	if body == nil {
		_, err := fmt.Fprintln(out, string(resp.Body))
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		return fmt.Errorf("failed to format response: %w", err)
	}
	_, err := fmt.Fprintln(out, pretty.String())
	return err
}
