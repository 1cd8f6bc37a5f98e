package github

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	ghrerrors "github.com/tombee/ghrest/pkg/errors"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		code int
		body string
		want string
	}{
		{
			name: "message and errors",
			code: 422,
			body: `{"message":"Validation Failed","errors":[{"field":"title","code":"missing"}]}`,
			want: `API error: 422 - Validation Failed - [{"field":"title","code":"missing"}]`,
		},
		{
			name: "errors are compacted",
			code: 422,
			body: "{\"message\": \"Bad\",\n \"errors\": [ \"a\", \"b\" ]}",
			want: `API error: 422 - Bad - ["a","b"]`,
		},
		{
			name: "message only",
			code: 404,
			body: `{"message":"Not Found","documentation_url":"https://docs.github.com"}`,
			want: "API error: 404 - Not Found",
		},
		{
			name: "non-JSON body appended raw",
			code: 502,
			body: "<html>Bad Gateway</html>",
			want: "API error: 502 - <html>Bad Gateway</html>",
		},
		{
			name: "empty body",
			code: 500,
			body: "",
			want: "API error: 500",
		},
		{
			name: "JSON without message",
			code: 403,
			body: `{"documentation_url":"x"}`,
			want: "API error: 403",
		},
		{
			name: "JSON array body",
			code: 400,
			body: `[1,2]`,
			want: "API error: 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := Classify(tt.code, http.Header{}, []byte(tt.body))
			assert.Equal(t, tt.want, apiErr.Error())
			assert.Equal(t, tt.code, apiErr.StatusCode)
			assert.True(t, apiErr.IsStatusCode(tt.code))
		})
	}
}

func TestClassify_Headers(t *testing.T) {
	h := http.Header{}
	h.Set("X-GitHub-Request-Id", "C0DE:1234")
	h.Set("X-RateLimit-Remaining", "0")
	h.Set("X-RateLimit-Reset", "1700000000")

	apiErr := Classify(http.StatusForbidden, h, nil)
	assert.Equal(t, "C0DE:1234", apiErr.RequestID)
	assert.Equal(t, 0, apiErr.RateLimitRemaining)
	assert.Equal(t, time.Unix(1700000000, 0), apiErr.RateLimitReset)

	apiErr = Classify(http.StatusForbidden, nil, nil)
	assert.Equal(t, -1, apiErr.RateLimitRemaining)
	assert.True(t, apiErr.RateLimitReset.IsZero())
}

func TestAPIError_Classifier(t *testing.T) {
	notFound := Classify(http.StatusNotFound, nil, nil)
	assert.True(t, notFound.IsNotFound())
	assert.False(t, notFound.IsRetryable())
	assert.Equal(t, "api", ghrerrors.Classify(notFound))

	assert.True(t, Classify(http.StatusTooManyRequests, nil, nil).IsRetryable())
	assert.True(t, Classify(http.StatusBadGateway, nil, nil).IsRetryable())
}
