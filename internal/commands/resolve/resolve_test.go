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

package resolve

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/ghrest/internal/commands/shared"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolve(t *testing.T) {
	out, err := run(t, "--base-url", "https://github.com", "repos/octocat/hello-world")
	require.NoError(t, err)
	assert.Equal(t, "https://api.github.com/repos/octocat/hello-world\n", out)

	out, err = run(t, "--base-url", "https://ghe.example.com:8443", "/repos/acme/tools")
	require.NoError(t, err)
	assert.Equal(t, "https://ghe.example.com:8443/api/v3/repos/acme/tools\n", out)
}

func TestResolve_JSON(t *testing.T) {
	defer shared.SetFlagsForTest("", true)()

	out, err := run(t, "--base-url", "https://gist.github.com", "/gists")
	require.NoError(t, err)

	var res result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "https://api.github.com/gists", res.URL)
	assert.Equal(t, "resolve", res.Command)
}

func TestResolve_InvalidBase(t *testing.T) {
	_, err := run(t, "--base-url", "not a url", "/x")
	assert.Equal(t, shared.ExitConfig, shared.ExitCode(err))
}
