// Package httpx wraps outbound HTTP calls with the safety rails every drover
// upstream (board, completion, analytics, GitHub) requires: an enforced
// timeout, non-success status rejection with a bounded diagnostic body, and
// credential redaction on any URL that reaches an error message or log line.
package httpx

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/constants"
	"github.com/droverhq/drover/internal/errors"
)

// sensitiveParams lists query parameter names whose values are masked before a
// URL appears in any error message or log line.
var sensitiveParams = []string{ //nolint:gochecknoglobals // Fixed redaction table
	"key", "token", "api_key", "apikey", "secret", "password", "auth",
}

// fallbackRedact masks credential-looking query pairs when URL parsing fails.
// The redaction guarantee must hold even for malformed URLs.
var fallbackRedact = regexp.MustCompile(`(?i)(key|token|api_key|apikey|secret|password|auth)=[^&]+`)

// Client issues timeout-bounded HTTP requests.
// The zero value is not usable; construct with NewClient.
type Client struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient substitutes the underlying *http.Client, e.g. a test server client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client with the default 30s timeout.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{},
		timeout:    constants.DefaultRequestTimeout,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do executes the request under the client timeout (or the deadline already on
// ctx, whichever is sooner). On deadline expiry the error wraps
// ErrRequestTimeout and carries only the redacted URL.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)

	resp, err := c.httpClient.Do(req.WithContext(reqCtx))
	if err != nil {
		cancel()
		if stderrors.Is(err, context.DeadlineExceeded) || reqCtx.Err() == context.DeadlineExceeded {
			return nil, errors.Wrapf(errors.ErrRequestTimeout,
				"%s %s after %s", req.Method, RedactURL(req.URL.String()), c.timeout)
		}
		return nil, errors.Wrapf(err, "%s %s", req.Method, RedactURL(req.URL.String()))
	}

	// Tie the context's lifetime to the body so callers can stream it.
	resp.Body = &cancelReadCloser{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// DoOK executes the request and additionally treats any non-2xx status as a
// failure, reading a bounded prefix of the response body into the error for
// diagnostics. The response body of a successful call remains open and owned
// by the caller.
func (c *Client) DoOK(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, constants.MaxErrorBodyBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			body = []byte("(unreadable body)")
		}
		return nil, errors.Wrapf(errors.ErrUpstreamStatus,
			"HTTP %d on %s %s: %s", resp.StatusCode, req.Method, RedactURL(req.URL.String()), body)
	}
	return resp, nil
}

// cancelReadCloser releases the request context when the body is closed.
type cancelReadCloser struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelReadCloser) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// RedactURL masks the values of known-sensitive query parameters so the URL is
// safe to place in a log line or error message. When the URL cannot be parsed
// the masking still holds via a regex fallback.
func RedactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fallbackRedact.ReplaceAllString(raw, "$1=***")
	}

	q := parsed.Query()
	changed := false
	for _, key := range sensitiveParams {
		if q.Has(key) {
			q.Set(key, "***")
			changed = true
		}
	}
	if changed {
		parsed.RawQuery = q.Encode()
	}
	return parsed.String()
}
