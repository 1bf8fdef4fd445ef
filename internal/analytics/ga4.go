package analytics

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"

	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/httpx"
)

// ga4Endpoint is the GA4 Data API base URL.
const ga4Endpoint = "https://analyticsdata.googleapis.com/v1beta"

// GA4Client queries the Google Analytics 4 Data API for one property.
type GA4Client struct {
	propertyID string
	baseURL    string
	tokens     oauth2.TokenSource
	http       *httpx.Client
	logger     zerolog.Logger
}

// GA4Option configures a GA4Client.
type GA4Option func(*GA4Client)

// WithGA4BaseURL overrides the API endpoint, e.g. a test server.
func WithGA4BaseURL(u string) GA4Option {
	return func(c *GA4Client) { c.baseURL = trimSlash(u) }
}

// WithGA4HTTPClient substitutes the secure request wrapper.
func WithGA4HTTPClient(hc *httpx.Client) GA4Option {
	return func(c *GA4Client) { c.http = hc }
}

// WithGA4Logger attaches a logger.
func WithGA4Logger(logger zerolog.Logger) GA4Option {
	return func(c *GA4Client) { c.logger = logger.With().Str("component", "ga4").Logger() }
}

// NewGA4Client creates a Data API client for one numeric property ID.
func NewGA4Client(propertyID string, tokens oauth2.TokenSource, opts ...GA4Option) *GA4Client {
	c := &GA4Client{
		propertyID: propertyID,
		baseURL:    ga4Endpoint,
		tokens:     tokens,
		http:       httpx.NewClient(),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GA4ReportRequest is one Data API report query.
type GA4ReportRequest struct {
	Range      Range
	Metrics    []string
	Dimensions []string
	Limit      int64
	OrderBy    string // metric name to sort by, descending
}

// GA4Row is one report row keyed by header name.
type GA4Row struct {
	Dimensions map[string]string
	Metrics    map[string]string
}

// ga4 wire types, trimmed to the fields drover reads.
type ga4Name struct {
	Name string `json:"name"`
}

type ga4Value struct {
	Value string `json:"value"`
}

type ga4WireRow struct {
	DimensionValues []ga4Value `json:"dimensionValues"`
	MetricValues    []ga4Value `json:"metricValues"`
}

type ga4WireResponse struct {
	DimensionHeaders []ga4Name    `json:"dimensionHeaders"`
	MetricHeaders    []ga4Name    `json:"metricHeaders"`
	Rows             []ga4WireRow `json:"rows"`
}

// RunReport executes one report and returns the rows keyed by header name.
func (c *GA4Client) RunReport(ctx context.Context, req GA4ReportRequest) ([]GA4Row, error) {
	type dateRange struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	type orderBy struct {
		Metric ga4Name `json:"metric"`
		Desc   bool    `json:"desc"`
	}
	payload := struct {
		DateRanges []dateRange `json:"dateRanges"`
		Metrics    []ga4Name   `json:"metrics"`
		Dimensions []ga4Name   `json:"dimensions,omitempty"`
		Limit      int64       `json:"limit,omitempty,string"`
		OrderBys   []orderBy   `json:"orderBys,omitempty"`
	}{
		DateRanges: []dateRange{{StartDate: googleDate(req.Range.StartAt), EndDate: googleDate(req.Range.EndAt)}},
		Limit:      req.Limit,
	}
	for _, m := range req.Metrics {
		payload.Metrics = append(payload.Metrics, ga4Name{Name: m})
	}
	for _, d := range req.Dimensions {
		payload.Dimensions = append(payload.Dimensions, ga4Name{Name: d})
	}
	if req.OrderBy != "" {
		payload.OrderBys = []orderBy{{Metric: ga4Name{Name: req.OrderBy}, Desc: true}}
	}

	url := c.baseURL + "/properties/" + c.propertyID + ":runReport"
	var resp ga4WireResponse
	if err := googleCall(ctx, c.http, c.tokens, "POST", url, payload, &resp); err != nil {
		return nil, errors.Wrap(err, "running GA4 report")
	}

	rows := make([]GA4Row, 0, len(resp.Rows))
	for _, wire := range resp.Rows {
		row := GA4Row{
			Dimensions: make(map[string]string, len(resp.DimensionHeaders)),
			Metrics:    make(map[string]string, len(resp.MetricHeaders)),
		}
		for i, header := range resp.DimensionHeaders {
			if i < len(wire.DimensionValues) {
				row.Dimensions[header.Name] = wire.DimensionValues[i].Value
			}
		}
		for i, header := range resp.MetricHeaders {
			if i < len(wire.MetricValues) {
				row.Metrics[header.Name] = wire.MetricValues[i].Value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// GA4KeyMetrics is the headline figures for one period.
type GA4KeyMetrics struct {
	Sessions           int
	ActiveUsers        int
	Pageviews          int
	AvgSessionDuration float64
	BounceRate         float64
}

// KeyMetrics fetches the headline figures for the range.
func (c *GA4Client) KeyMetrics(ctx context.Context, r Range) (GA4KeyMetrics, error) {
	rows, err := c.RunReport(ctx, GA4ReportRequest{
		Range: r,
		Metrics: []string{
			"sessions", "activeUsers", "screenPageViews",
			"averageSessionDuration", "bounceRate",
		},
	})
	if err != nil {
		return GA4KeyMetrics{}, err
	}
	if len(rows) == 0 {
		return GA4KeyMetrics{}, nil
	}

	m := rows[0].Metrics
	return GA4KeyMetrics{
		Sessions:           metricInt(m, "sessions"),
		ActiveUsers:        metricInt(m, "activeUsers"),
		Pageviews:          metricInt(m, "screenPageViews"),
		AvgSessionDuration: metricFloat(m, "averageSessionDuration"),
		BounceRate:         metricFloat(m, "bounceRate"),
	}, nil
}

// GA4PageStat is one page ranked by views.
type GA4PageStat struct {
	Path  string
	Views int
}

// TopPages returns the highest-traffic pages for the range.
func (c *GA4Client) TopPages(ctx context.Context, r Range, limit int) ([]GA4PageStat, error) {
	rows, err := c.RunReport(ctx, GA4ReportRequest{
		Range:      r,
		Metrics:    []string{"screenPageViews"},
		Dimensions: []string{"pagePath"},
		Limit:      int64(limit),
		OrderBy:    "screenPageViews",
	})
	if err != nil {
		return nil, err
	}

	pages := make([]GA4PageStat, 0, len(rows))
	for _, row := range rows {
		pages = append(pages, GA4PageStat{
			Path:  row.Dimensions["pagePath"],
			Views: metricInt(row.Metrics, "screenPageViews"),
		})
	}
	return pages, nil
}

// GA4CountryStat is one country ranked by active users.
type GA4CountryStat struct {
	Country string
	Users   int
}

// TopCountries returns the countries with the most active users for the range.
func (c *GA4Client) TopCountries(ctx context.Context, r Range, limit int) ([]GA4CountryStat, error) {
	rows, err := c.RunReport(ctx, GA4ReportRequest{
		Range:      r,
		Metrics:    []string{"activeUsers"},
		Dimensions: []string{"country"},
		Limit:      int64(limit),
		OrderBy:    "activeUsers",
	})
	if err != nil {
		return nil, err
	}

	countries := make([]GA4CountryStat, 0, len(rows))
	for _, row := range rows {
		countries = append(countries, GA4CountryStat{
			Country: row.Dimensions["country"],
			Users:   metricInt(row.Metrics, "activeUsers"),
		})
	}
	return countries, nil
}

func metricInt(m map[string]string, name string) int {
	v, _ := strconv.Atoi(m[name])
	return v
}

func metricFloat(m map[string]string, name string) float64 {
	v, _ := strconv.ParseFloat(m[name], 64)
	return v
}
