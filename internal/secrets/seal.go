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
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

const (
	// Argon2id parameters: time=3, memory=64MB, parallelism=4
	argon2Time        = 3
	argon2Memory      = 64 * 1024
	argon2Parallelism = 4
	argon2KeyLength   = 32 // AES-256

	saltSize     = 16
	gcmNonceSize = 12
)

// envelope is the serialized form of a sealed secret.
type envelope struct {
	Salt  []byte `json:"salt"`
	Nonce []byte `json:"nonce"`
	Data  []byte `json:"data"`
}

// Seal encrypts plaintext with a key derived from password.
func Seal(password, plaintext []byte) ([]byte, error) {
	if len(password) == 0 {
		return nil, &ghrerrors.CryptoError{Operation: "seal secret", Cause: errors.New("password is empty")}
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, &ghrerrors.CryptoError{Operation: "generate salt", Cause: err}
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, &ghrerrors.CryptoError{Operation: "generate nonce", Cause: err}
	}

	sealed, err := json.Marshal(envelope{
		Salt:  salt,
		Nonce: nonce,
		Data:  gcm.Seal(nil, nonce, plaintext, nil),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sealed secret: %w", err)
	}
	return sealed, nil
}

// Open decrypts a secret produced by Seal.
func Open(password, sealed []byte) ([]byte, error) {
	var env envelope
	if err := json.Unmarshal(sealed, &env); err != nil {
		return nil, &ghrerrors.CryptoError{Operation: "open secret", Cause: fmt.Errorf("invalid sealed data format: %w", err)}
	}
	if len(env.Salt) == 0 || len(env.Nonce) != gcmNonceSize || len(env.Data) == 0 {
		return nil, &ghrerrors.CryptoError{Operation: "open secret", Cause: errors.New("incomplete sealed data")}
	}

	gcm, err := newGCM(password, env.Salt)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, env.Nonce, env.Data, nil)
	if err != nil {
		return nil, &ghrerrors.CryptoError{Operation: "open secret", Cause: errors.New("decryption failed (wrong password or corrupted data)")}
	}
	return plaintext, nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(password, salt, argon2Time, argon2Memory, argon2Parallelism, argon2KeyLength)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, &ghrerrors.CryptoError{Operation: "create cipher", Cause: err}
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, &ghrerrors.CryptoError{Operation: "create GCM", Cause: err}
	}
	return gcm, nil
}
