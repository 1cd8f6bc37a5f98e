// Package github provides a resilient client for the GitHub REST API.
//
// It resolves API URLs for github.com and Enterprise Server hosts, attaches
// bearer credentials from an AccessTokenProvider, retries idempotent requests
// on transient failures, and converts terminal failures into *APIError.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	ghlog "github.com/tombee/ghrest/internal/log"
	"github.com/tombee/ghrest/internal/tracing"
	ghrerrors "github.com/tombee/ghrest/pkg/errors"
	"github.com/tombee/ghrest/pkg/httpclient"
)

const (
	// DefaultProduct is the User-Agent product name when none is configured.
	DefaultProduct = "ghrest"

	// APIVersion is the REST API version requested by installation exchanges.
	APIVersion = "2022-11-28"

	// HeaderAPIVersion carries APIVersion.
	HeaderAPIVersion = "X-GitHub-Api-Version"

	mediaType = "application/vnd.github+json"
)

// AccessTokenProvider supplies bearer tokens for API calls.
type AccessTokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// Endpoint identifies the API deployment and the credentials used against it.
type Endpoint struct {
	BaseURL string
	Tokens  AccessTokenProvider
}

// Request describes one logical API call.
type Request struct {
	Method string

	// Path is resolved against the endpoint base URL.
	Path string

	// URL is an absolute URL that takes precedence over Path when set.
	URL string

	Params  map[string]string
	Body    any
	Headers map[string]string
}

// Response is the successful outcome of a logical call.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Attempts is the number of HTTP attempts the call took.
	Attempts int
}

// Client executes requests against one Endpoint. It is safe for concurrent use.
type Client struct {
	endpoint      Endpoint
	httpClient    *http.Client
	correlationID tracing.CorrelationID
	product       string
	headers       map[string]string
	limiter       *rate.Limiter
	logger        *slog.Logger
	maxAttempts   int

	// overridden in tests
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
	jitter func() time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. By default one is built with
// pkg/httpclient defaults.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCorrelationID sets the session correlation id sent in the User-Agent.
func WithCorrelationID(id tracing.CorrelationID) Option {
	return func(c *Client) {
		if id != "" {
			c.correlationID = id
		}
	}
}

// WithProduct sets the User-Agent product name.
func WithProduct(product string) Option {
	return func(c *Client) {
		if product != "" {
			c.product = product
		}
	}
}

// WithHeader adds a header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers[key] = value
	}
}

// WithRateLimiter makes every attempt wait on limiter first.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// WithLogger sets the logger used for retry warnings and HTTP logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for endpoint. The base URL is validated eagerly.
func New(endpoint Endpoint, opts ...Option) (*Client, error) {
	if _, err := ResolveURL(endpoint.BaseURL, "/"); err != nil {
		return nil, err
	}
	if endpoint.Tokens == nil {
		return nil, &ghrerrors.ConfigError{Key: "auth", Reason: "an access token provider is required"}
	}

	c := &Client{
		endpoint:      endpoint,
		correlationID: tracing.NewCorrelationID(),
		product:       DefaultProduct,
		headers:       make(map[string]string),
		logger:        slog.Default(),
		maxAttempts:   MaxAttempts,
		sleep:         sleepContext,
		now:           time.Now,
		jitter:        randomJitter,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.logger = ghlog.WithComponent(ghlog.WithCorrelationID(c.logger, c.correlationID.String()), "github")

	if c.httpClient == nil {
		cfg := httpclient.DefaultConfig()
		cfg.UserAgent = c.UserAgent()
		cfg.Logger = c.logger
		hc, err := httpclient.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("creating http client: %w", err)
		}
		c.httpClient = hc
	}

	return c, nil
}

// Endpoint returns the endpoint the client talks to.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// CorrelationID returns the session correlation id.
func (c *Client) CorrelationID() tracing.CorrelationID {
	return c.correlationID
}

// UserAgent returns the User-Agent header sent with every call.
func (c *Client) UserAgent() string {
	return c.product + ": " + c.correlationID.String()
}

// Do executes req, retrying transient failures of idempotent methods.
// A non-2xx outcome is returned as *APIError.
func (c *Client) Do(ctx context.Context, req *Request) (resp *Response, err error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	target, err := c.RequestURL(req)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if req.Body != nil {
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	spanTarget := req.Path
	if req.URL != "" {
		spanTarget = req.URL
	}
	ctx, span := tracing.StartRequestSpan(ctx, method, spanTarget)
	attempts, status := 0, 0
	defer func() {
		tracing.EndRequestSpan(span, attempts, status, err)
	}()

	token, err := c.endpoint.Tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	for attempts = 1; ; attempts++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctxErr)
		}

		if c.limiter != nil {
			if waitErr := c.limiter.Wait(ctx); waitErr != nil {
				return nil, fmt.Errorf("waiting for rate limiter: %w", waitErr)
			}
		}

		r, rtErr := c.roundTrip(ctx, method, target, token, payload, req.Headers)
		if rtErr != nil {
			return nil, rtErr
		}
		status = r.StatusCode
		requestsTotal.WithLabelValues(method, strconv.Itoa(status)).Inc()

		if status >= 200 && status < 300 {
			r.Attempts = attempts
			return r, nil
		}

		if isRetryable(method, status) {
			delay := retryDelay(r.Header, attempts, c.now(), c.jitter())
			c.logger.Warn("retryable response from GitHub",
				"status", status,
				ghlog.RequestIDKey, r.Header.Get("X-GitHub-Request-Id"),
				"delay_ms", delay.Milliseconds(),
				"attempt", attempts,
				"max_attempts", c.maxAttempts)

			if delay >= 0 && attempts < c.maxAttempts {
				retriesTotal.WithLabelValues(strconv.Itoa(status)).Inc()
				if sleepErr := c.sleep(ctx, delay); sleepErr != nil {
					return nil, fmt.Errorf("request cancelled during retry backoff: %w", sleepErr)
				}
				continue
			}
		}

		return nil, Classify(status, r.Header, r.Body)
	}
}

// Send executes a call built from its parts.
func (c *Client) Send(ctx context.Context, method, path string, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: method, Path: path, Body: body})
}

// SingleObjectResult executes a call whose response must be a JSON object.
func (c *Client) SingleObjectResult(ctx context.Context, method, path string, body any) (map[string]any, error) {
	resp, err := c.Send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	return decodeObject(resp.Body)
}

// SingleArrayResult executes a call whose response must be a JSON array of objects.
func (c *Client) SingleArrayResult(ctx context.Context, method, path string, body any) ([]map[string]any, error) {
	resp, err := c.Send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}

	v, err := decodeJSON(resp.Body, "array")
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &ghrerrors.UnexpectedShapeError{Expected: "array", Actual: jsonKind(v)}
	}

	result := make([]map[string]any, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, &ghrerrors.UnexpectedShapeError{Expected: "array of objects", Actual: "array containing " + jsonKind(item)}
		}
		result = append(result, obj)
	}
	return result, nil
}

// VoidResult executes a call and discards the response body.
func (c *Client) VoidResult(ctx context.Context, method, path string, body any) error {
	_, err := c.Send(ctx, method, path, body)
	return err
}

// RequestURL returns the absolute URL req targets, query parameters included.
func (c *Client) RequestURL(req *Request) (string, error) {
	target := req.URL
	if target == "" {
		resolved, err := ResolveURL(c.endpoint.BaseURL, req.Path)
		if err != nil {
			return "", err
		}
		target = resolved
	}
	return appendParams(target, req.Params), nil
}

func (c *Client) roundTrip(ctx context.Context, method, target, token string, payload []byte, extra map[string]string) (*Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	httpReq.Header.Set("Accept", mediaType)
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("User-Agent", c.UserAgent())
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range extra {
		httpReq.Header.Set(k, v)
	}
	tracing.InjectHTTPHeaders(ctx, httpReq)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctxErr)
		}
		return nil, fmt.Errorf("%s request failed: %w", method, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}, nil
}

func decodeObject(body []byte) (map[string]any, error) {
	v, err := decodeJSON(body, "object")
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &ghrerrors.UnexpectedShapeError{Expected: "object", Actual: jsonKind(v)}
	}
	return obj, nil
}

func decodeJSON(body []byte, expected string) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, &ghrerrors.UnexpectedShapeError{Expected: expected, Actual: "empty body"}
	}

	var v any
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, fmt.Errorf("decoding response body: %w", err)
	}
	return v, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
