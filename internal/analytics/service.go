package analytics

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/droverhq/drover/internal/errors"
)

// topLimit is how many rows each ranking in a summary carries.
const topLimit = 10

// Service aggregates the raw client endpoints into period summaries,
// optionally enriched with Google Analytics and Search Console data.
type Service struct {
	client *Client
	ga4    *GA4Client
	search *SearchConsoleClient
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithGA4Source attaches a Google Analytics source to summaries.
func WithGA4Source(c *GA4Client) ServiceOption {
	return func(s *Service) { s.ga4 = c }
}

// WithSearchConsoleSource attaches a Search Console source to summaries.
func WithSearchConsoleSource(c *SearchConsoleClient) ServiceOption {
	return func(s *Service) { s.search = c }
}

// NewService wraps a client.
func NewService(client *Client, opts ...ServiceOption) *Service {
	s := &Service{client: client}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Client exposes the underlying client for callers needing raw endpoints.
func (s *Service) Client() *Client {
	return s.client
}

// Pageviews proxies the raw pageviews endpoint.
func (s *Service) Pageviews(ctx context.Context, r Range, unit TimeUnit) (PageviewsResponse, error) {
	return s.client.Pageviews(ctx, r, unit)
}

// ActiveVisitors proxies the raw active-visitors endpoint.
func (s *Service) ActiveVisitors(ctx context.Context) (int, error) {
	return s.client.ActiveVisitors(ctx)
}

// Summary fetches the period stats and every top ranking in parallel. Any
// single failed query fails the whole summary.
func (s *Service) Summary(ctx context.Context, r Range) (*Summary, error) {
	summary := &Summary{Range: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.client.Stats(gctx, r)
		summary.Stats = stats
		return err
	})
	g.Go(func() error {
		rows, err := s.client.Metrics(gctx, r, MetricURL, topLimit)
		summary.TopPages = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.client.Metrics(gctx, r, MetricReferrer, topLimit)
		summary.TopReferrers = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.client.Metrics(gctx, r, MetricCountry, topLimit)
		summary.TopCountries = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.client.Metrics(gctx, r, MetricBrowser, topLimit)
		summary.TopBrowsers = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.client.Metrics(gctx, r, MetricDevice, topLimit)
		summary.TopDevices = rows
		return err
	})

	if s.ga4 != nil {
		ga4 := &GA4Summary{}
		summary.GA4 = ga4
		g.Go(func() error {
			key, err := s.ga4.KeyMetrics(gctx, r)
			ga4.Key = key
			return err
		})
		g.Go(func() error {
			pages, err := s.ga4.TopPages(gctx, r, topLimit)
			ga4.TopPages = pages
			return err
		})
		g.Go(func() error {
			countries, err := s.ga4.TopCountries(gctx, r, topLimit)
			ga4.TopCountries = countries
			return err
		})
	}

	if s.search != nil {
		search := &SearchSummary{}
		summary.Search = search
		g.Go(func() error {
			rows, err := s.search.TopQueries(gctx, r, topLimit)
			search.TopQueries = rows
			return err
		})
		g.Go(func() error {
			rows, err := s.search.TopPages(gctx, r, topLimit)
			search.TopPages = rows
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "building analytics summary")
	}
	return summary, nil
}

// FormatMarkdown renders a summary as a markdown report with one table per
// section, the shape agents receive it in.
func FormatMarkdown(summary *Summary) string {
	var b strings.Builder

	b.WriteString("# Analytics Report\n")
	fmt.Fprintf(&b, "**Period:** %s — %s\n\n",
		summary.Range.StartAt.Format("2006-01-02"),
		summary.Range.EndAt.Format("2006-01-02"))

	b.WriteString("## Key Metrics\n\n")
	b.WriteString("| Metric | Value | Previous |\n")
	b.WriteString("|--------|-------|----------|\n")
	writeStatRow(&b, "Pageviews", summary.Stats.Pageviews)
	writeStatRow(&b, "Visitors", summary.Stats.Visitors)
	writeStatRow(&b, "Visits", summary.Stats.Visits)
	writeStatRow(&b, "Bounces", summary.Stats.Bounces)
	writeStatRow(&b, "Total Time (s)", summary.Stats.TotalTime)
	b.WriteString("\n")

	writeMetricTable(&b, "Top Pages", "Page", summary.TopPages)
	writeMetricTable(&b, "Top Referrers", "Referrer", summary.TopReferrers)
	writeMetricTable(&b, "Top Countries", "Country", summary.TopCountries)
	writeMetricTable(&b, "Top Browsers", "Browser", summary.TopBrowsers)
	writeMetricTable(&b, "Top Devices", "Device", summary.TopDevices)

	if summary.GA4 != nil {
		writeGA4Section(&b, summary.GA4)
	}
	if summary.Search != nil {
		writeSearchSection(&b, summary.Search)
	}

	return strings.TrimRight(b.String(), "\n")
}

func writeGA4Section(b *strings.Builder, ga4 *GA4Summary) {
	b.WriteString("## Google Analytics (GA4)\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Sessions | %d |\n", ga4.Key.Sessions)
	fmt.Fprintf(b, "| Active Users | %d |\n", ga4.Key.ActiveUsers)
	fmt.Fprintf(b, "| Page Views | %d |\n", ga4.Key.Pageviews)
	fmt.Fprintf(b, "| Avg Session Duration | %.1fs |\n", ga4.Key.AvgSessionDuration)
	fmt.Fprintf(b, "| Bounce Rate | %.1f%% |\n", ga4.Key.BounceRate*100)
	b.WriteString("\n")

	if len(ga4.TopPages) > 0 {
		b.WriteString("### Top Pages (GA4)\n\n| Page | Views |\n|------|-------|\n")
		for _, p := range ga4.TopPages {
			fmt.Fprintf(b, "| %s | %d |\n", p.Path, p.Views)
		}
		b.WriteString("\n")
	}
	if len(ga4.TopCountries) > 0 {
		b.WriteString("### Top Countries (GA4)\n\n| Country | Users |\n|---------|-------|\n")
		for _, c := range ga4.TopCountries {
			fmt.Fprintf(b, "| %s | %d |\n", c.Country, c.Users)
		}
		b.WriteString("\n")
	}
}

func writeSearchSection(b *strings.Builder, search *SearchSummary) {
	clicks, impressions := search.Totals()

	b.WriteString("## Google Search Console\n\n")
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|--------|-------|\n")
	fmt.Fprintf(b, "| Total Clicks | %s |\n", formatCount(clicks))
	fmt.Fprintf(b, "| Total Impressions | %s |\n", formatCount(impressions))
	fmt.Fprintf(b, "| Average CTR | %.2f%% |\n", search.AverageCTR()*100)
	fmt.Fprintf(b, "| Average Position | %.1f |\n", search.AveragePosition())
	b.WriteString("\n")

	writeSearchTable(b, "Top Queries", "Query", search.TopQueries)
	writeSearchTable(b, "Top Pages (Search)", "Page", search.TopPages)
}

func writeSearchTable(b *strings.Builder, title, column string, rows []SearchRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	fmt.Fprintf(b, "| %s | Clicks | Impressions | CTR | Position |\n", column)
	b.WriteString("|---|---|---|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s | %s | %.2f%% | %.1f |\n",
			row.Key(), formatCount(row.Clicks), formatCount(row.Impressions),
			row.CTR*100, row.Position)
	}
	b.WriteString("\n")
}

// FormatPageviews renders a pageviews time series as a markdown table.
// Sessions align index-wise with pageview buckets; a missing session bucket
// renders as zero.
func FormatPageviews(pv PageviewsResponse) string {
	if len(pv.Pageviews) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Pageviews Over Time\n\n")
	b.WriteString("| Date | Pageviews | Sessions |\n")
	b.WriteString("|------|-----------|----------|\n")
	for i, point := range pv.Pageviews {
		sessions := 0.0
		if i < len(pv.Sessions) {
			sessions = pv.Sessions[i].Y
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", point.Label(), formatCount(point.Y), formatCount(sessions))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeStatRow(b *strings.Builder, name string, v MetricValue) {
	fmt.Fprintf(b, "| %s | %s | %s |\n", name, formatCount(v.Value), formatCount(v.Prev))
}

func writeMetricTable(b *strings.Builder, title, column string, rows []Metric) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", title)
	fmt.Fprintf(b, "| %s | Count |\n", column)
	b.WriteString("|---|---|\n")
	for _, row := range rows {
		fmt.Fprintf(b, "| %s | %s |\n", row.X, formatCount(row.Y))
	}
	b.WriteString("\n")
}

// formatCount renders a metric count without a trailing ".0" for whole values.
func formatCount(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
