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
Package secrets provides organization-scoped secret storage for GitHub App
credentials.

Secrets are addressed by an organization and a name. Three stores are
available:

  - file: plain files under <dir>/<org>/<name>
  - keychain: the system keychain (service "ghrest", user "<org>/<name>")
  - vault: a HashiCorp Vault KV v2 mount (<mount>/data/<org>/<name>)

# Password-protected secrets

A secret may be sealed with a password. Sealed secrets are a JSON envelope
holding a salt, a nonce and AES-256-GCM ciphertext. The key is derived from
the password with Argon2id:

	sealed, err := secrets.Seal([]byte("password"), appCredentials)
	plain, err := secrets.Open([]byte("password"), sealed)

# Exporting

Exporter reads a secret, opens it when a password is given and writes the
plaintext to a private temporary file. This is the shape consumed by the
app-installation-secret token provider:

	exporter := &secrets.Exporter{Store: store}
	path, err := exporter.ExportFile(ctx, "acme", "github-app", password)
*/
package secrets
