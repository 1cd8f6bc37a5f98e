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

// Package seal implements the seal command.
package seal

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tombee/ghrest/internal/commands/shared"
	"github.com/tombee/ghrest/internal/secrets"
)

type result struct {
	shared.JSONResponse
	Backend string `json:"backend,omitempty"`
	Secret  string `json:"secret,omitempty"`
	Sealed  string `json:"sealed,omitempty"`
}

type options struct {
	password string
	org      string
	name     string
	backend  string
	dir      string
}

// NewCommand creates the seal command.
func NewCommand() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "seal <file>",
		Short: "Encrypt app credentials for an appInstallationSecret",
		Long: `Seal a file (typically {"clientId": ..., "privateKey": ...} JSON) with a
password so it can be stored as an organization secret and referenced by an
appInstallationSecret auth block.

The sealed envelope is printed, or written to a secret store when --org and
--name are given. Without --password the password is read from the terminal.
Use - as the file to read from stdin.

Examples:
  ghrest seal app.json > app.sealed
  ghrest seal --org acme --name github-app app.json
  ghrest seal --org acme --name github-app --backend keychain app.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.password, "password", "", "Password used to seal the secret (prompted when empty)")
	cmd.Flags().StringVar(&opts.org, "org", "", "Store the sealed secret under this organization")
	cmd.Flags().StringVar(&opts.name, "name", "", "Store the sealed secret under this name")
	cmd.Flags().StringVar(&opts.backend, "backend", secrets.BackendFile, "Secret store backend (file, keychain)")
	cmd.Flags().StringVar(&opts.dir, "dir", "", "Directory for the file backend")

	return cmd
}

func run(cmd *cobra.Command, file string, opts options) error {
	if (opts.org == "") != (opts.name == "") {
		return shared.NewUsageError("--org and --name must be given together", nil)
	}

	plaintext, err := readInput(cmd.InOrStdin(), file)
	if err != nil {
		return err
	}

	password := opts.password
	if password == "" {
		password, err = promptPassword(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	sealed, err := secrets.Seal([]byte(password), plaintext)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.org == "" {
		if shared.GetJSON() {
			return shared.EmitJSON(out, result{
				JSONResponse: shared.JSONResponse{Version: "1.0", Command: "seal", Success: true},
				Sealed:       string(sealed),
			})
		}
		_, err = fmt.Fprintln(out, string(sealed))
		return err
	}

	store, err := secrets.New(secrets.Config{Backend: opts.backend, Dir: opts.dir})
	if err != nil {
		return err
	}
	writer, ok := store.(secrets.Writer)
	if !ok {
		return shared.NewUsageError(fmt.Sprintf("backend %s", store.Name()), secrets.ErrReadOnlyBackend)
	}
	if err := writer.Write(cmd.Context(), opts.org, opts.name, sealed); err != nil {
		return err
	}

	if shared.GetJSON() {
		return shared.EmitJSON(out, result{
			JSONResponse: shared.JSONResponse{Version: "1.0", Command: "seal", Success: true},
			Backend:      store.Name(),
			Secret:       opts.org + "/" + opts.name,
		})
	}
	_, err = fmt.Fprintf(out, "Stored sealed secret %s/%s in %s backend\n", opts.org, opts.name, store.Name())
	return err
}

func readInput(stdin io.Reader, file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, shared.NewUsageError("failed to read input", err)
	}
	return data, nil
}

func promptPassword(prompt io.Writer) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", shared.NewUsageError("--password is required when stdin is not a terminal", nil)
	}

	fmt.Fprint(prompt, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(prompt)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(pw) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(pw), nil
}
