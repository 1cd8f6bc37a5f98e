package github

import (
	"context"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// MaxAttempts is the total number of attempts per logical request
	// (1 initial + up to 4 retries).
	MaxAttempts = 5

	baseBackoff = 1 * time.Second
	maxBackoff  = 8 * time.Second
	maxJitter   = 250 * time.Millisecond

	// maxDelaySeconds is the largest header value representable as a Duration.
	maxDelaySeconds = math.MaxInt64 / int64(time.Second)
)

// isIdempotentMethod reports whether repeating method has the same effect as
// performing it once. POST and PATCH are never retried.
func isIdempotentMethod(method string) bool {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete, http.MethodOptions:
		return true
	default:
		return false
	}
}

// isRetryableStatus reports whether a response status may succeed on retry.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable:
		return true
	default:
		return false
	}
}

func isRetryable(method string, statusCode int) bool {
	return isIdempotentMethod(method) && isRetryableStatus(statusCode)
}

// retryDelay computes how long to wait before the next attempt. In priority
// order it honors Retry-After (integer seconds), then X-RateLimit-Reset
// (epoch seconds), then falls back to capped exponential backoff plus jitter.
// attempt is the 1-based number of the attempt that just failed.
func retryDelay(header http.Header, attempt int, now time.Time, jitter time.Duration) time.Duration {
	if v := header.Get("Retry-After"); v != "" {
		if seconds, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return secondsToDuration(seconds)
		}
	}

	if v := header.Get("X-RateLimit-Reset"); v != "" {
		if reset, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil && reset > 0 {
			delta := secondsToDuration(reset - now.Unix() + 1)
			if delta > 0 {
				return delta
			}
		}
	}

	return backoffDelay(attempt) + jitter
}

// secondsToDuration converts header seconds, saturating instead of overflowing.
func secondsToDuration(seconds int64) time.Duration {
	switch {
	case seconds > maxDelaySeconds:
		seconds = maxDelaySeconds
	case seconds < -maxDelaySeconds:
		seconds = -maxDelaySeconds
	}
	return time.Duration(seconds) * time.Second
}

// backoffDelay returns min(1s * 2^(attempt-1), 8s).
func backoffDelay(attempt int) time.Duration {
	d := baseBackoff
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// randomJitter returns a random duration in [0, 250ms).
func randomJitter() time.Duration {
	return time.Duration(rand.Int63n(int64(maxJitter)))
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
