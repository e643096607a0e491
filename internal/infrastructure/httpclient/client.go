// Package httpclient provides the shared outbound HTTP transport for provider
// connectors: response classification into the integration error taxonomy,
// bounded retry with exponential backoff and jitter for transient failures,
// and per-connector request pacing.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Carloscisneroides/logistica-sub001/internal/domain/integration"
)

// maxResponseSize caps provider response bodies (10MB).
const maxResponseSize = 10 * 1024 * 1024

// maxRetryAfterWait caps how long a 429 Retry-After is honored before the
// attempt is given up to the backoff loop.
const maxRetryAfterWait = 30 * time.Second

// Response is a fully drained provider response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// RequestBuilder constructs a fresh request per attempt so retries never
// reuse a consumed body.
type RequestBuilder func(ctx context.Context) (*http.Request, error)

// Client wraps http.Client with retry, pacing and error classification.
// Safe for concurrent use.
type Client struct {
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-attempt HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithRateLimit paces outbound requests to r per second with burst b, so one
// tenant's sync cannot burst a provider into 429s.
func WithRateLimit(r float64, b int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(r), b) }
}

// WithMaxRetries bounds retry attempts for transient failures.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a provider HTTP client.
func New(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: 30 * time.Second},
		maxRetries: 3,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request with bounded retry. Only clearly transient
// failures (timeouts, 5xx, 429) are retried; authentication and validation
// failures surface immediately. The caller's context deadline bounds the
// whole loop.
func (c *Client) Do(ctx context.Context, build RequestBuilder) (*Response, error) {
	var resp *Response

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 10 * time.Second

	operation := func() error {
		r, err := c.attempt(ctx, build)
		if err != nil {
			if !integration.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			c.waitRetryAfter(ctx, err)
			return err
		}
		resp = r
		return nil
	}

	err := backoff.Retry(operation,
		backoff.WithContext(backoff.WithMaxRetries(bo, c.maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// DoOnce executes exactly one attempt with no retry. Used for label
// purchases, where a retried ambiguous failure could buy a second label.
func (c *Client) DoOnce(ctx context.Context, build RequestBuilder) (*Response, error) {
	return c.attempt(ctx, build)
}

func (c *Client) attempt(ctx context.Context, build RequestBuilder) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", integration.ErrProviderUnavailable, err)
		}
	}

	req, err := build(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrProviderRequest, err)
	}

	httpResp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient; the deadline makes
		// the call return instead of hanging.
		return nil, fmt.Errorf("%w: %v", integration.ErrProviderUnavailable, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", integration.ErrProviderUnavailable, err)
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}
	if err := Classify(resp); err != nil {
		if integration.IsRetryable(err) {
			c.logger.Warn("provider call failed, will retry",
				zap.String("url", req.URL.Host),
				zap.Int("status", resp.StatusCode))
		}
		return nil, err
	}
	return resp, nil
}

// waitRetryAfter honors a provider-specified 429 delay before the next
// backoff attempt, bounded by maxRetryAfterWait and the context.
func (c *Client) waitRetryAfter(ctx context.Context, err error) {
	var rl *integration.RateLimitError
	if !errors.As(err, &rl) || rl.RetryAfter <= 0 {
		return
	}
	wait := rl.RetryAfter
	if wait > maxRetryAfterWait {
		wait = maxRetryAfterWait
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Classify maps a provider HTTP status onto the integration error taxonomy.
// Returns nil for 2xx/3xx.
func Classify(resp *Response) error {
	switch {
	case resp.StatusCode < 400:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: HTTP %d", integration.ErrProviderAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &integration.RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", integration.ErrProviderUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: HTTP %d", integration.ErrProviderRequest, resp.StatusCode)
	}
}

// parseRetryAfter handles both Retry-After forms: delta-seconds and an HTTP
// date. Unparseable or past values are treated as absent.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if wait := time.Until(at); wait > 0 {
			return wait
		}
	}
	return 0
}
