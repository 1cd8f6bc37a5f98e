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
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tombee/ghrest/internal/github"
	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

func rsaKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		testKey = key
	})
	return testKey
}

func pkcs1PEM(t *testing.T) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(rsaKey(t)),
	}))
}

func pkcs8PEM(t *testing.T) string {
	der, err := x509.MarshalPKCS8PrivateKey(rsaKey(t))
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}))
}

func testAuth(t *testing.T) AppInstallationAuth {
	return AppInstallationAuth{PrivateKey: pkcs1PEM(t), ClientID: "Iv1.abc123", RefreshBufferSeconds: 60}
}

func parseJWT(t *testing.T, signed string) *jwt.RegisteredClaims {
	t.Helper()
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(signed, claims, func(token *jwt.Token) (interface{}, error) {
		require.Equal(t, "RS256", token.Method.Alg())
		return &rsaKey(t).PublicKey, nil
	}, jwt.WithoutClaimsValidation())
	require.NoError(t, err)
	return claims
}

// fakeGitHub serves the installation lookup and token exchange endpoints.
type fakeGitHub struct {
	server    *httptest.Server
	lookups   atomic.Int32
	exchanges atomic.Int32

	mu         sync.Mutex
	expiresAt  func() time.Time
	failCreate bool
	jwts       []string
	apiVersion []string
}

func newFakeGitHub(t *testing.T, expiresAt func() time.Time) *fakeGitHub {
	f := &fakeGitHub{expiresAt: expiresAt}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/repos/octo/app-repo/installation", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.lookups.Add(1)
		f.record(r)
		fmt.Fprintf(w, `{"id":42,"access_tokens_url":%q}`, f.server.URL+"/api/v3/app/installations/42/access_tokens")
	})
	mux.HandleFunc("/api/v3/app/installations/42/access_tokens", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		f.record(r)
		f.mu.Lock()
		fail := f.failCreate
		f.mu.Unlock()
		if fail {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"message":"boom"}`)
			return
		}
		n := f.exchanges.Add(1)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"token":"ghs_%d","expires_at":%q}`, n, f.expiresAt().UTC().Format(time.RFC3339))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGitHub) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jwts = append(f.jwts, strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "))
	f.apiVersion = append(f.apiVersion, r.Header.Get(github.HeaderAPIVersion))
}

func (f *fakeGitHub) setFailCreate(v bool) {
	f.mu.Lock()
	f.failCreate = v
	f.mu.Unlock()
}

func (f *fakeGitHub) options() Options {
	return Options{BaseURL: f.server.URL, InstallationRepo: "octo/app-repo"}
}

func TestSignJWT(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for name, pemKey := range map[string]string{"pkcs1": pkcs1PEM(t), "pkcs8": pkcs8PEM(t)} {
		t.Run(name, func(t *testing.T) {
			signed, err := SignJWT(AppInstallationAuth{PrivateKey: pemKey, ClientID: "Iv1.abc123"}, now)
			require.NoError(t, err)
			assert.Len(t, strings.Split(signed, "."), 3)

			claims := parseJWT(t, signed)
			assert.Equal(t, "Iv1.abc123", claims.Issuer)
			assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
			assert.Equal(t, now.Unix()+600, claims.ExpiresAt.Unix())
		})
	}
}

func TestSignJWT_InvalidKey(t *testing.T) {
	_, err := SignJWT(AppInstallationAuth{PrivateKey: "not a key", ClientID: "x"}, time.Now())

	var cryptoErr *ghrerrors.CryptoError
	require.ErrorAs(t, err, &cryptoErr)
	assert.Equal(t, "parse private key", cryptoErr.Operation)
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	buffer := 60 * time.Second

	tests := []struct {
		name  string
		token *InstallationToken
		want  bool
	}{
		{name: "no token", token: nil, want: true},
		{name: "expires inside buffer", token: &InstallationToken{ExpiresAt: now.Add(30 * time.Second)}, want: true},
		{name: "expires at buffer edge", token: &InstallationToken{ExpiresAt: now.Add(buffer)}, want: true},
		{name: "already expired", token: &InstallationToken{ExpiresAt: now.Add(-time.Minute)}, want: true},
		{name: "valid", token: &InstallationToken{ExpiresAt: now.Add(buffer + time.Second)}, want: false},
		{name: "valid for an hour", token: &InstallationToken{ExpiresAt: now.Add(time.Hour)}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsExpired(tt.token, buffer, now))
		})
	}
}

func TestAppInstallationAuth_RefreshBuffer(t *testing.T) {
	assert.Equal(t, 60*time.Second, AppInstallationAuth{}.RefreshBuffer())
	assert.Equal(t, 60*time.Second, AppInstallationAuth{RefreshBufferSeconds: -5}.RefreshBuffer())
	assert.Equal(t, 300*time.Second, AppInstallationAuth{RefreshBufferSeconds: 300}.RefreshBuffer())
}

type unknownAuth struct{}

func (unknownAuth) auth() {}

func TestFromAuth(t *testing.T) {
	opts := Options{BaseURL: "https://github.com", InstallationRepo: "octo/app-repo", Secrets: &fakeExporter{}}

	p, err := FromAuth(AccessTokenAuth{Token: "ghp_x"}, opts)
	require.NoError(t, err)
	assert.IsType(t, &StaticToken{}, p)

	p, err = FromAuth(testAuth(t), opts)
	require.NoError(t, err)
	assert.IsType(t, &AppInstallationProvider{}, p)

	p, err = FromAuth(AppInstallationSecretAuth{Org: "acme", Name: "app"}, opts)
	require.NoError(t, err)
	assert.IsType(t, &SecretProvider{}, p)

	var cfgErr *ghrerrors.ConfigError
	_, err = FromAuth(nil, opts)
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "auth", cfgErr.Key)

	_, err = FromAuth(unknownAuth{}, opts)
	require.ErrorAs(t, err, &cfgErr)

	_, err = FromAuth(AccessTokenAuth{}, opts)
	require.ErrorAs(t, err, &cfgErr)
}

func TestStaticToken(t *testing.T) {
	p, err := NewStaticToken("ghp_static")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tok, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ghp_static", tok)
	}
}

func TestNewAppInstallationProvider_Validation(t *testing.T) {
	tests := []struct {
		name    string
		auth    AppInstallationAuth
		opts    Options
		wantKey string
	}{
		{
			name:    "missing client id",
			auth:    AppInstallationAuth{PrivateKey: "pem"},
			opts:    Options{BaseURL: "https://github.com", InstallationRepo: "o/r"},
			wantKey: "auth.appInstallation.clientId",
		},
		{
			name:    "bad base url",
			auth:    AppInstallationAuth{PrivateKey: "pem", ClientID: "x"},
			opts:    Options{BaseURL: "github.com", InstallationRepo: "o/r"},
			wantKey: "base_url",
		},
		{
			name:    "bad installation repo",
			auth:    AppInstallationAuth{PrivateKey: "pem", ClientID: "x"},
			opts:    Options{BaseURL: "https://github.com", InstallationRepo: "just-a-name"},
			wantKey: "installation_repo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAppInstallationProvider(tt.auth, tt.opts)
			var cfgErr *ghrerrors.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
		})
	}
}

func TestAppInstallationProvider_ExchangesAndCaches(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gh := newFakeGitHub(t, func() time.Time { return now.Add(time.Hour) })

	p, err := NewAppInstallationProvider(testAuth(t), gh.options())
	require.NoError(t, err)
	p.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		tok, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ghs_1", tok)
	}

	assert.Equal(t, int32(1), gh.lookups.Load())
	assert.Equal(t, int32(1), gh.exchanges.Load())

	require.Len(t, gh.jwts, 2)
	assert.Equal(t, gh.jwts[0], gh.jwts[1], "lookup and exchange share one JWT")
	claims := parseJWT(t, gh.jwts[0])
	assert.Equal(t, "Iv1.abc123", claims.Issuer)
	assert.Equal(t, []string{github.APIVersion, github.APIVersion}, gh.apiVersion)
}

func TestAppInstallationProvider_RefreshesWithinBuffer(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gh := newFakeGitHub(t, func() time.Time { return now.Add(30 * time.Second) })

	p, err := NewAppInstallationProvider(testAuth(t), gh.options())
	require.NoError(t, err)
	p.now = func() time.Time { return now }

	first, err := p.Token(context.Background())
	require.NoError(t, err)
	second, err := p.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "ghs_1", first)
	assert.Equal(t, "ghs_2", second)
	assert.Equal(t, int32(2), gh.exchanges.Load())
}

func TestAppInstallationProvider_FailureClearsCache(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	gh := newFakeGitHub(t, func() time.Time { return now.Add(30 * time.Second) })

	p, err := NewAppInstallationProvider(testAuth(t), gh.options())
	require.NoError(t, err)
	p.now = func() time.Time { return now }

	_, err = p.Token(context.Background())
	require.NoError(t, err)

	gh.setFailCreate(true)
	tok, err := p.Token(context.Background())
	assert.Empty(t, tok)

	var tae *ghrerrors.TokenAcquisitionError
	require.ErrorAs(t, err, &tae)
	assert.Equal(t, "app_installation", tae.Source)

	var apiErr *github.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Nil(t, p.token)
}

func TestAppInstallationProvider_ConcurrentCallersShareRefresh(t *testing.T) {
	gh := newFakeGitHub(t, func() time.Time { return time.Now().Add(time.Hour) })

	p, err := NewAppInstallationProvider(testAuth(t), gh.options())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := p.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "ghs_1", tok)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), gh.exchanges.Load())
}

type fakeExporter struct {
	dir     string
	content string
	err     error
	calls   atomic.Int32
	paths   []string
}

func (e *fakeExporter) ExportFile(_ context.Context, org, name, password string) (string, error) {
	e.calls.Add(1)
	if e.err != nil {
		return "", e.err
	}
	path := filepath.Join(e.dir, org+"-"+name+".json")
	if err := os.WriteFile(path, []byte(e.content), 0o600); err != nil {
		return "", err
	}
	e.paths = append(e.paths, path)
	return path, nil
}

func TestSecretProvider_ResolvesOnce(t *testing.T) {
	gh := newFakeGitHub(t, func() time.Time { return time.Now().Add(time.Hour) })

	auth := testAuth(t)
	content, err := json.Marshal(map[string]string{"clientId": auth.ClientID, "privateKey": auth.PrivateKey})
	require.NoError(t, err)

	exporter := &fakeExporter{dir: t.TempDir(), content: string(content)}
	opts := gh.options()
	opts.Secrets = exporter

	p, err := NewSecretProvider(AppInstallationSecretAuth{Org: "acme", Name: "gh-app", Password: "pw"}, opts)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		tok, err := p.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "ghs_1", tok)
	}

	assert.Equal(t, int32(1), exporter.calls.Load())
	require.Len(t, exporter.paths, 1)
	assert.NoFileExists(t, exporter.paths[0])
}

func TestSecretProvider_CachesFailure(t *testing.T) {
	exporter := &fakeExporter{err: errors.New("secret not found")}
	opts := Options{BaseURL: "https://github.com", InstallationRepo: "o/r", Secrets: exporter}

	p, err := NewSecretProvider(AppInstallationSecretAuth{Org: "acme", Name: "missing"}, opts)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := p.Token(context.Background())
		var tae *ghrerrors.TokenAcquisitionError
		require.ErrorAs(t, err, &tae)
		assert.Equal(t, "app_installation_secret", tae.Source)
		assert.Contains(t, err.Error(), "secret not found")
	}
	assert.Equal(t, int32(1), exporter.calls.Load())
}

func TestSecretProvider_InvalidSecretContent(t *testing.T) {
	exporter := &fakeExporter{dir: t.TempDir(), content: "not json"}
	opts := Options{BaseURL: "https://github.com", InstallationRepo: "o/r", Secrets: exporter}

	p, err := NewSecretProvider(AppInstallationSecretAuth{Org: "acme", Name: "broken"}, opts)
	require.NoError(t, err)

	_, err = p.Token(context.Background())
	var tae *ghrerrors.TokenAcquisitionError
	require.ErrorAs(t, err, &tae)
	assert.Contains(t, err.Error(), "decoding secret acme/broken")
}

func TestNewSecretProvider_Validation(t *testing.T) {
	_, err := NewSecretProvider(AppInstallationSecretAuth{Org: "acme", Name: "x"}, Options{})
	var cfgErr *ghrerrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "secrets", cfgErr.Key)

	_, err = NewSecretProvider(AppInstallationSecretAuth{Name: "x"}, Options{Secrets: &fakeExporter{}})
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "auth.appInstallationSecret.org", cfgErr.Key)
}

func TestNewHTTPClient(t *testing.T) {
	var got string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer server.Close()

	provider, err := NewStaticToken("ghp_oauth")
	require.NoError(t, err)

	resp, err := NewHTTPClient(context.Background(), provider, nil).Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer ghp_oauth", got)

	tok, err := TokenSource(context.Background(), provider).Token()
	require.NoError(t, err)
	assert.Equal(t, "ghp_oauth", tok.AccessToken)
	assert.True(t, tok.Valid())
}

type rotatingProvider struct {
	calls atomic.Int32
}

func (p *rotatingProvider) Token(context.Context) (string, error) {
	return fmt.Sprintf("ghs_%d", p.calls.Add(1)), nil
}

func TestNewHTTPClient_AsksProviderPerRequest(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Authorization"))
	}))
	defer server.Close()

	provider := &rotatingProvider{}
	hc := NewHTTPClient(context.Background(), provider, &http.Client{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, hc.Timeout)

	for range 2 {
		resp, err := hc.Get(server.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.Equal(t, []string{"Bearer ghs_1", "Bearer ghs_2"}, seen)
}

func TestNewHTTPClient_ProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request must not be sent without a token")
	}))
	defer server.Close()

	provider := providerFunc(func(context.Context) (string, error) {
		return "", &ghrerrors.TokenAcquisitionError{Source: "test", Cause: errors.New("exchange failed")}
	})

	_, err := NewHTTPClient(context.Background(), provider, nil).Get(server.URL)
	var tokenErr *ghrerrors.TokenAcquisitionError
	assert.ErrorAs(t, err, &tokenErr)
}

type providerFunc func(context.Context) (string, error)

func (f providerFunc) Token(ctx context.Context) (string, error) { return f(ctx) }
