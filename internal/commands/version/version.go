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

package version

import (
	"github.com/spf13/cobra"

	"github.com/tombee/ghrest/internal/commands/shared"
	"github.com/tombee/ghrest/internal/github"
)

// VersionInfo contains version metadata
type VersionInfo struct {
	shared.JSONResponse
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	BuildDate  string `json:"build_date"`
	APIVersion string `json:"api_version"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, build date and the GitHub REST API version ghrest requests.`,
		Args:  cobra.NoArgs,
		RunE:  runVersion,
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	v, c, b := shared.GetVersion()

	info := VersionInfo{
		JSONResponse: shared.JSONResponse{Version: "1.0", Command: "version", Success: true},
		Version:      v,
		Commit:       c,
		BuildDate:    b,
		APIVersion:   github.APIVersion,
	}

	if shared.GetJSON() {
		return shared.EmitJSON(cmd.OutOrStdout(), info)
	}

	cmd.Printf("ghrest version %s\n", info.Version)
	cmd.Printf("  commit:      %s\n", info.Commit)
	cmd.Printf("  build date:  %s\n", info.BuildDate)
	cmd.Printf("  api version: %s\n", info.APIVersion)

	return nil
}
