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

package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Exporter materializes secrets from a Store as private temporary files.
type Exporter struct {
	Store Store

	// Dir is where exported files are created. Empty means os.TempDir().
	Dir string
}

// ExportFile reads org/name, opens it with password when one is given, and
// writes the plaintext to a new 0600 file. The caller owns the file.
func (e *Exporter) ExportFile(ctx context.Context, org, name, password string) (string, error) {
	if e.Store == nil {
		return "", errors.New("exporter has no secret store")
	}

	data, err := e.Store.Read(ctx, org, name)
	if err != nil {
		return "", err
	}

	if password != "" {
		plain, err := Open([]byte(password), data)
		zeroBytes(data)
		if err != nil {
			return "", fmt.Errorf("secret %s/%s: %w", org, name, err)
		}
		data = plain
	}
	defer zeroBytes(data)

	// CreateTemp uses mode 0600
	f, err := os.CreateTemp(e.Dir, "ghrest-secret-*")
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to close export file: %w", err)
	}

	return f.Name(), nil
}
