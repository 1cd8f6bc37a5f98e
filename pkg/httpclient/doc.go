// Package httpclient provides the HTTP client factory used for GitHub API
// calls, with consistent timeout and observability behavior.
//
// The package creates HTTP clients with these defaults:
//   - 30s connect timeout and 30s per-request timeout
//   - Request logging with sanitized URLs (sensitive parameters redacted)
//   - Authorization and token headers redacted from trace-level header logs
//   - User-Agent header injection when the caller did not set one
//   - TLS 1.2 minimum (TLS 1.3 preferred)
//   - Connection pooling for performance
//
// Retries are not handled here. Retry eligibility depends on the API's rate
// limit headers and on the logical request, so it lives in the GitHub client.
//
// # Usage
//
//	cfg := httpclient.DefaultConfig()
//	cfg.UserAgent = "ghrest: 3f1c..."
//	client, err := httpclient.New(cfg)
//	if err != nil {
//	    return err
//	}
//	resp, err := client.Do(req)
package httpclient
