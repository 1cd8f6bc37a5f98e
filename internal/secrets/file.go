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
	"path/filepath"
)

// FileStore keeps each secret in its own file under <dir>/<org>/<name>.
type FileStore struct {
	dir string
}

// NewFileStore creates a file store rooted at dir. If dir is empty, it
// defaults to ~/.config/ghrest/secrets.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config directory: %w", err)
		}
		dir = filepath.Join(configDir, "ghrest", "secrets")
	}
	return &FileStore{dir: dir}, nil
}

// Name returns the backend identifier.
func (f *FileStore) Name() string {
	return BackendFile
}

// Dir returns the store root.
func (f *FileStore) Dir() string {
	return f.dir
}

// Read returns the contents of <dir>/<org>/<name>.
func (f *FileStore) Read(ctx context.Context, org, name string) ([]byte, error) {
	if err := ValidateName(org, name); err != nil {
		return nil, err
	}

	path := filepath.Join(f.dir, org, name)
	if err := verifyFilePermissions(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrSecretNotFound, org, name)
		}
		return nil, fmt.Errorf("secret file %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}
	return data, nil
}

// Write stores value atomically with 0600 permissions.
func (f *FileStore) Write(ctx context.Context, org, name string, value []byte) error {
	if err := ValidateName(org, name); err != nil {
		return err
	}

	dir := filepath.Join(f.dir, org)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	path := filepath.Join(dir, name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, value, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// verifyFilePermissions checks that path is a regular file readable only by
// its owner.
func verifyFilePermissions(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		return errors.New("file is a symlink (not allowed for security)")
	}
	if !info.Mode().IsRegular() {
		return errors.New("not a regular file")
	}

	perm := info.Mode().Perm()
	if perm&0077 != 0 {
		return fmt.Errorf("file permissions too open (got %o, want 0600)", perm)
	}

	return nil
}

// zeroBytes clears sensitive material.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
