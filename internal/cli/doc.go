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

/*
Package cli provides the root command for the ghrest CLI.

This package creates the root Cobra command and handles global concerns like
version information, persistent flags and exit codes. Individual commands
are implemented in the internal/commands subpackages and registered by main.

# Command Tree

	ghrest
	├── resolve    Print the API URL for a path
	├── token      Acquire an access token
	├── request    Send an API request through the retrying client
	├── download   Stream a response body to a file or stdout
	├── seal       Encrypt app credentials for an appInstallationSecret
	└── version    Show version

# Global Flags

	--verbose, -v    Enable debug logging
	--json           Output in JSON format
	--config         Path to config file

# Exit Codes

  - 0: Success
  - 1: General error
  - 2: Configuration or usage error
  - 3: GitHub API error
*/
package cli
