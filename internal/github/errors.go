package github

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

// APIError is a terminal non-2xx response from the API.
type APIError struct {
	// StatusCode is the HTTP status of the final attempt.
	StatusCode int

	// Message is a human-readable description suitable for display.
	Message string

	// RequestID is the X-GitHub-Request-Id of the failed response, if any.
	RequestID string

	// RateLimitRemaining is the X-RateLimit-Remaining value, or -1 when absent.
	RateLimitRemaining int

	// RateLimitReset is when the rate limit window resets, zero when absent.
	RateLimitReset time.Time
}

var _ ghrerrors.ErrorClassifier = (*APIError)(nil)

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// IsStatusCode reports whether the error carries the given HTTP status.
func (e *APIError) IsStatusCode(code int) bool {
	return e.StatusCode == code
}

// IsNotFound reports whether the resource does not exist.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// ErrorType implements errors.ErrorClassifier.
func (e *APIError) ErrorType() string {
	return "api"
}

// IsRetryable implements errors.ErrorClassifier. It reports whether the status
// belongs to the retryable set, regardless of the request method.
func (e *APIError) IsRetryable() bool {
	return isRetryableStatus(e.StatusCode)
}

// Classify converts a terminal response into an APIError. It never fails:
// a body that is not JSON is appended verbatim.
func Classify(statusCode int, header http.Header, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode:         statusCode,
		Message:            fmt.Sprintf("API error: %d", statusCode),
		RequestID:          header.Get("X-GitHub-Request-Id"),
		RateLimitRemaining: -1,
	}

	if remaining := header.Get("X-RateLimit-Remaining"); remaining != "" {
		if v, err := strconv.Atoi(remaining); err == nil {
			apiErr.RateLimitRemaining = v
		}
	}
	if reset := header.Get("X-RateLimit-Reset"); reset != "" {
		if v, err := strconv.ParseInt(reset, 10, 64); err == nil {
			apiErr.RateLimitReset = time.Unix(v, 0)
		}
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return apiErr
	}

	if !json.Valid(body) {
		apiErr.Message += " - " + string(body)
		return apiErr
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		// valid JSON that is not an object carries no message
		return apiErr
	}
	if raw, ok := fields["message"]; ok {
		apiErr.Message += " - " + jsonText(raw)
	}
	if raw, ok := fields["errors"]; ok {
		apiErr.Message += " - " + compactJSON(raw)
	}

	return apiErr
}

// jsonText returns the string value of raw, or its compact form for non-strings.
func jsonText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return compactJSON(raw)
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
