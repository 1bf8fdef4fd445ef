// Package analytics provides a read-only client for an Umami-compatible web
// analytics server, plus a facade that aggregates one reporting period into a
// markdown summary agents can reason over.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/httpx"
)

// Client is an authenticated analytics API client scoped to one website.
// The bearer token is obtained lazily on first use and cached for the life
// of the client.
type Client struct {
	baseURL   string
	websiteID string
	username  string
	password  string
	timezone  string
	http      *httpx.Client
	logger    zerolog.Logger

	mu    sync.Mutex
	token string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient substitutes the secure request wrapper.
func WithHTTPClient(hc *httpx.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// WithTimezone sets the timezone sent on time-series queries. Defaults to UTC.
func WithTimezone(tz string) ClientOption {
	return func(c *Client) {
		if tz != "" {
			c.timezone = tz
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.With().Str("component", "analytics").Logger() }
}

// NewClient creates an analytics client for one website.
func NewClient(baseURL, websiteID, username, password string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   trimSlash(baseURL),
		websiteID: websiteID,
		username:  username,
		password:  password,
		timezone:  "UTC",
		http:      httpx.NewClient(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// ensureAuth logs in on first use and caches the bearer token.
func (c *Client) ensureAuth(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"username": c.username,
		"password": c.password,
	})
	if err != nil {
		return "", errors.Wrap(err, "encoding login request")
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "building login request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.DoOK(ctx, req)
	if err != nil {
		return "", errors.Wrap(errors.ErrAnalyticsAuth, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", errors.Wrap(err, "decoding login response")
	}
	if body.Token == "" {
		return "", errors.Wrap(errors.ErrAnalyticsAuth, "login returned no token")
	}

	c.token = body.Token
	c.logger.Debug().Msg("analytics session established")
	return c.token, nil
}

// get performs one authenticated GET against the API and decodes JSON into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	token, err := c.ensureAuth(ctx)
	if err != nil {
		return err
	}

	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}
	req, err := http.NewRequest(http.MethodGet, full, nil)
	if err != nil {
		return errors.Wrap(err, "building analytics request")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.DoOK(ctx, req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decoding analytics response")
	}
	return nil
}

func rangeQuery(r Range) url.Values {
	q := url.Values{}
	q.Set("startAt", strconv.FormatInt(r.StartAt.UnixMilli(), 10))
	q.Set("endAt", strconv.FormatInt(r.EndAt.UnixMilli(), 10))
	return q
}

func (c *Client) websitePath(suffix string) string {
	return "/api/websites/" + c.websiteID + suffix
}

// Stats returns the website stats for the range, with previous-period
// comparison values.
func (c *Client) Stats(ctx context.Context, r Range) (Stats, error) {
	var stats Stats
	if err := c.get(ctx, c.websitePath("/stats"), rangeQuery(r), &stats); err != nil {
		return Stats{}, errors.Wrap(err, "fetching stats")
	}
	return stats, nil
}

// Pageviews returns pageviews and sessions over time, bucketed by unit.
func (c *Client) Pageviews(ctx context.Context, r Range, unit TimeUnit) (PageviewsResponse, error) {
	q := rangeQuery(r)
	q.Set("unit", string(unit))
	q.Set("timezone", c.timezone)

	var pv PageviewsResponse
	if err := c.get(ctx, c.websitePath("/pageviews"), q, &pv); err != nil {
		return PageviewsResponse{}, errors.Wrap(err, "fetching pageviews")
	}
	return pv, nil
}

// Metrics returns the top rows for one dimension, highest count first.
func (c *Client) Metrics(ctx context.Context, r Range, metricType MetricType, limit int) ([]Metric, error) {
	q := rangeQuery(r)
	q.Set("type", string(metricType))
	q.Set("limit", strconv.Itoa(limit))

	var rows []Metric
	if err := c.get(ctx, c.websitePath("/metrics"), q, &rows); err != nil {
		return nil, errors.Wrapf(err, "fetching %s metrics", metricType)
	}
	return rows, nil
}

// ActiveVisitors returns the number of visitors currently on the site.
func (c *Client) ActiveVisitors(ctx context.Context) (int, error) {
	var active struct {
		X int `json:"x"`
	}
	if err := c.get(ctx, c.websitePath("/active"), nil, &active); err != nil {
		return 0, errors.Wrap(err, "fetching active visitors")
	}
	return active.X, nil
}

// String implements fmt.Stringer without exposing credentials.
func (c *Client) String() string {
	return fmt.Sprintf("analytics.Client(%s, website=%s)", c.baseURL, c.websiteID)
}
