package github

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable(t *testing.T) {
	methods := []string{"GET", "HEAD", "PUT", "DELETE", "OPTIONS", "POST", "PATCH", "get"}
	statuses := []int{200, 400, 401, 403, 404, 422, 429, 500, 501, 502, 503, 504}

	for _, m := range methods {
		for _, s := range statuses {
			idempotent := m != "POST" && m != "PATCH"
			transient := s == 429 || s == 500 || s == 502 || s == 503
			assert.Equal(t, idempotent && transient, isRetryable(m, s), "%s %d", m, s)
		}
	}
}

func TestBackoffDelay(t *testing.T) {
	want := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second,
		8 * time.Second,
	}
	for i, w := range want {
		assert.Equal(t, w, backoffDelay(i+1), "attempt %d", i+1)
	}

	prev := time.Duration(0)
	for attempt := 1; attempt <= 64; attempt++ {
		d := backoffDelay(attempt)
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, maxBackoff)
		prev = d
	}
}

func TestRetryDelay(t *testing.T) {
	now := time.Unix(1700000000, 0)
	jitter := 100 * time.Millisecond

	t.Run("retry-after wins", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "7")
		h.Set("X-RateLimit-Reset", strconv.FormatInt(now.Unix()+100, 10))
		assert.Equal(t, 7*time.Second, retryDelay(h, 1, now, jitter))
	})

	t.Run("rate limit reset", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-RateLimit-Reset", strconv.FormatInt(now.Unix()+10, 10))
		assert.Equal(t, 11*time.Second, retryDelay(h, 1, now, jitter))
	})

	t.Run("reset in the past falls back to backoff", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-RateLimit-Reset", strconv.FormatInt(now.Unix()-30, 10))
		assert.Equal(t, 2*time.Second+jitter, retryDelay(h, 2, now, jitter))
	})

	t.Run("unparsable headers ignored", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "Wed, 21 Oct 2015 07:28:00 GMT")
		h.Set("X-RateLimit-Reset", "soon")
		assert.Equal(t, 4*time.Second+jitter, retryDelay(h, 3, now, jitter))
	})

	t.Run("no headers", func(t *testing.T) {
		assert.Equal(t, 8*time.Second, retryDelay(http.Header{}, 5, now, 0))
	})

	t.Run("huge retry-after saturates", func(t *testing.T) {
		for _, v := range []string{"99999999999", "9223372036854775807"} {
			h := http.Header{}
			h.Set("Retry-After", v)
			d := retryDelay(h, 1, now, jitter)
			assert.Positive(t, d, v)
			assert.Equal(t, time.Duration(maxDelaySeconds)*time.Second, d, v)
		}
	})

	t.Run("huge negative retry-after stays negative", func(t *testing.T) {
		h := http.Header{}
		h.Set("Retry-After", "-9223372036854775807")
		assert.Negative(t, retryDelay(h, 1, now, jitter))
	})

	t.Run("huge rate limit reset saturates", func(t *testing.T) {
		h := http.Header{}
		h.Set("X-RateLimit-Reset", "9223372036854775807")
		assert.Equal(t, time.Duration(maxDelaySeconds)*time.Second, retryDelay(h, 1, now, jitter))
	})
}

func TestRandomJitter(t *testing.T) {
	for i := 0; i < 1000; i++ {
		j := randomJitter()
		require.GreaterOrEqual(t, j, time.Duration(0))
		require.Less(t, j, maxJitter)
	}
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := sleepContext(ctx, time.Hour)
	assert.ErrorIs(t, err, context.Canceled)
}
