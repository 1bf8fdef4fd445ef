package analytics

import (
	"context"
	"net/url"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/httpx"
)

// searchConsoleEndpoint is the Search Console API base URL.
const searchConsoleEndpoint = "https://searchconsole.googleapis.com/webmasters/v3"

// SearchConsoleClient queries Google Search Console analytics for one site.
type SearchConsoleClient struct {
	siteURL string
	baseURL string
	tokens  oauth2.TokenSource
	http    *httpx.Client
	logger  zerolog.Logger
}

// SearchConsoleOption configures a SearchConsoleClient.
type SearchConsoleOption func(*SearchConsoleClient)

// WithSearchConsoleBaseURL overrides the API endpoint, e.g. a test server.
func WithSearchConsoleBaseURL(u string) SearchConsoleOption {
	return func(c *SearchConsoleClient) { c.baseURL = trimSlash(u) }
}

// WithSearchConsoleHTTPClient substitutes the secure request wrapper.
func WithSearchConsoleHTTPClient(hc *httpx.Client) SearchConsoleOption {
	return func(c *SearchConsoleClient) { c.http = hc }
}

// WithSearchConsoleLogger attaches a logger.
func WithSearchConsoleLogger(logger zerolog.Logger) SearchConsoleOption {
	return func(c *SearchConsoleClient) {
		c.logger = logger.With().Str("component", "search_console").Logger()
	}
}

// NewSearchConsoleClient creates a client for one registered site property.
func NewSearchConsoleClient(siteURL string, tokens oauth2.TokenSource, opts ...SearchConsoleOption) *SearchConsoleClient {
	c := &SearchConsoleClient{
		siteURL: siteURL,
		baseURL: searchConsoleEndpoint,
		tokens:  tokens,
		http:    httpx.NewClient(),
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchRow is one search-analytics row: the dimension keys with their
// aggregated click and impression figures.
type SearchRow struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

// Key returns the first dimension key, the usual single-dimension case.
func (r SearchRow) Key() string {
	if len(r.Keys) == 0 {
		return ""
	}
	return r.Keys[0]
}

// Query runs one search-analytics query over the range, aggregated by the
// given dimensions.
func (c *SearchConsoleClient) Query(ctx context.Context, r Range, dimensions []string, rowLimit int) ([]SearchRow, error) {
	payload := struct {
		StartDate  string   `json:"startDate"`
		EndDate    string   `json:"endDate"`
		Dimensions []string `json:"dimensions,omitempty"`
		SearchType string   `json:"searchType"`
		RowLimit   int      `json:"rowLimit,omitempty"`
	}{
		StartDate:  googleDate(r.StartAt),
		EndDate:    googleDate(r.EndAt),
		Dimensions: dimensions,
		SearchType: "web",
		RowLimit:   rowLimit,
	}

	endpoint := c.baseURL + "/sites/" + url.PathEscape(c.siteURL) + "/searchAnalytics/query"
	var resp struct {
		Rows []SearchRow `json:"rows"`
	}
	if err := googleCall(ctx, c.http, c.tokens, "POST", endpoint, payload, &resp); err != nil {
		return nil, errors.Wrap(err, "querying search analytics")
	}
	return resp.Rows, nil
}

// TopQueries returns the best-performing search queries for the range.
func (c *SearchConsoleClient) TopQueries(ctx context.Context, r Range, limit int) ([]SearchRow, error) {
	return c.Query(ctx, r, []string{"query"}, limit)
}

// TopPages returns the best-performing pages in search for the range.
func (c *SearchConsoleClient) TopPages(ctx context.Context, r Range, limit int) ([]SearchRow, error) {
	return c.Query(ctx, r, []string{"page"}, limit)
}
