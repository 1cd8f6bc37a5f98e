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

package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

// JWTLifetime is the validity window of app JWTs.
const JWTLifetime = 10 * time.Minute

// SignJWT mints an RS256 app JWT for auth. The iat and exp claims both derive
// from now.
func SignJWT(auth AppInstallationAuth, now time.Time) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(auth.PrivateKey))
	if err != nil {
		return "", &ghrerrors.CryptoError{Operation: "parse private key", Cause: err}
	}

	claims := jwt.RegisteredClaims{
		Issuer:    auth.ClientID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(JWTLifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", &ghrerrors.CryptoError{Operation: "sign jwt", Cause: err}
	}
	return signed, nil
}
