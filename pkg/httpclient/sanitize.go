package httpclient

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// sensitiveParams contains query parameter names that should be redacted from logs.
// These are matched case-insensitively.
var sensitiveParams = []string{
	"access_token",
	"token",
	"password",
	"secret",
	"client_secret",
	"code",
	"jwt",
}

// sensitiveHeaders are replaced entirely in header dumps.
var sensitiveHeaders = map[string]bool{
	"Authorization":       true,
	"Proxy-Authorization": true,
	"Cookie":              true,
	"X-Vault-Token":       true,
}

// sanitizeURL removes sensitive query parameters from URLs before logging.
func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	for param := range q {
		if isSensitiveParam(param) {
			q.Set(param, "[REDACTED]")
		}
	}

	safe := *u
	safe.User = nil
	safe.RawQuery = q.Encode()
	return safe.String()
}

// isSensitiveParam checks if a parameter name matches the sensitive list.
func isSensitiveParam(param string) bool {
	lower := strings.ToLower(param)
	for _, sensitive := range sensitiveParams {
		if strings.Contains(lower, sensitive) {
			return true
		}
	}
	return false
}

// sanitizeHeaders flattens h into "Name: value" strings with credentials redacted.
func sanitizeHeaders(h http.Header) []string {
	out := make([]string, 0, len(h))
	for name, values := range h {
		canonical := http.CanonicalHeaderKey(name)
		value := strings.Join(values, ", ")
		if sensitiveHeaders[canonical] {
			value = redactCredential(value)
		}
		out = append(out, canonical+": "+value)
	}
	sort.Strings(out)
	return out
}

// redactCredential keeps the auth scheme ("Bearer", "token") and drops the secret.
func redactCredential(v string) string {
	if scheme, _, ok := strings.Cut(v, " "); ok {
		return scheme + " [REDACTED]"
	}
	return "[REDACTED]"
}
