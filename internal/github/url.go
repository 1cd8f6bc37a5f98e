package github

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

const (
	// hostAPI is the API host of the public deployment.
	hostAPI = "api.github.com"

	// enterprisePrefix is prepended to every path on Enterprise Server hosts.
	enterprisePrefix = "/api/v3"
)

// ResolveURL builds the fully-qualified API URL for path relative to baseURL.
//
// github.com and gist.github.com are rewritten to api.github.com. Every other
// host is treated as an Enterprise Server and gets the /api/v3 prefix. The
// scheme and port of baseURL are preserved.
//
//	ResolveURL("https://github.com", "/repos/x/y")      // https://api.github.com/repos/x/y
//	ResolveURL("https://ghe.local:8443", "repos/x/y")   // https://ghe.local:8443/api/v3/repos/x/y
func ResolveURL(baseURL, path string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", &ghrerrors.ConfigError{
			Key:    "base_url",
			Reason: fmt.Sprintf("malformed base URL %q", baseURL),
			Cause:  err,
		}
	}
	if u.Scheme == "" {
		return "", &ghrerrors.ConfigError{Key: "base_url", Reason: fmt.Sprintf("base URL without scheme: %q", baseURL)}
	}

	host := u.Hostname()
	if host == "" {
		return "", &ghrerrors.ConfigError{Key: "base_url", Reason: fmt.Sprintf("base URL without host: %q", baseURL)}
	}

	if host == "github.com" || host == "gist.github.com" {
		host = hostAPI
	}

	prefix := ""
	if host != hostAPI {
		prefix = enterprisePrefix
	}

	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" {
		host = host + ":" + port
	}

	apiURL := url.URL{
		Scheme: u.Scheme,
		Host:   host,
		Path:   joinPaths(prefix, path),
	}
	return apiURL.String(), nil
}

// joinPaths joins prefix and path with exactly one separating slash.
func joinPaths(prefix, path string) string {
	p := "/" + strings.TrimLeft(path, "/")
	if prefix == "" {
		return p
	}
	return strings.TrimRight(prefix, "/") + p
}

// appendParams adds url-encoded query parameters to an absolute URL. Keys are
// sorted so the resulting URL is deterministic.
func appendParams(absoluteURL string, params map[string]string) string {
	if len(params) == 0 {
		return absoluteURL
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var sb strings.Builder
	sb.WriteString(absoluteURL)
	sep := "?"
	if strings.Contains(absoluteURL, "?") {
		sep = "&"
	}
	for _, k := range keys {
		sb.WriteString(sep)
		sb.WriteString(queryEscape(k))
		sb.WriteByte('=')
		sb.WriteString(queryEscape(params[k]))
		sep = "&"
	}
	return sb.String()
}

func queryEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
