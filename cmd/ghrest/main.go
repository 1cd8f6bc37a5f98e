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

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tombee/ghrest/internal/cli"
	"github.com/tombee/ghrest/internal/commands/download"
	"github.com/tombee/ghrest/internal/commands/request"
	"github.com/tombee/ghrest/internal/commands/resolve"
	"github.com/tombee/ghrest/internal/commands/seal"
	"github.com/tombee/ghrest/internal/commands/token"
	versioncmd "github.com/tombee/ghrest/internal/commands/version"
)

// Version information (injected via ldflags at build time)
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cli.SetVersion(version, commit, buildDate)

	rootCmd := cli.NewRootCommand()
	rootCmd.AddCommand(resolve.NewCommand())
	rootCmd.AddCommand(token.NewCommand())
	rootCmd.AddCommand(request.NewCommand())
	rootCmd.AddCommand(download.NewCommand())
	rootCmd.AddCommand(seal.NewCommand())
	rootCmd.AddCommand(versioncmd.NewVersionCommand())

	// Ctrl-C cancels in-flight requests and retry backoff.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		cli.HandleExitError(err)
	}
}
