package analytics

import "time"

// Range bounds an analytics query. The API takes epoch milliseconds.
type Range struct {
	StartAt time.Time
	EndAt   time.Time
}

// Days returns the range length in whole days, rounded up.
func (r Range) Days() int {
	d := r.EndAt.Sub(r.StartAt)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// MetricValue is a stat with its previous-period comparison.
type MetricValue struct {
	Value float64 `json:"value"`
	Prev  float64 `json:"prev"`
}

// Stats is the website stats payload: current values with previous-period
// comparisons.
type Stats struct {
	Pageviews MetricValue `json:"pageviews"`
	Visitors  MetricValue `json:"visitors"`
	Visits    MetricValue `json:"visits"`
	Bounces   MetricValue `json:"bounces"`
	TotalTime MetricValue `json:"totaltime"`
}

// Point is one bucket in a time series. Servers emit the bucket label as
// either "t" or "x" depending on version.
type Point struct {
	T string  `json:"t"`
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Label returns the bucket label regardless of which field carried it.
func (p Point) Label() string {
	if p.T != "" {
		return p.T
	}
	return p.X
}

// PageviewsResponse is the pageviews-over-time payload.
type PageviewsResponse struct {
	Pageviews []Point `json:"pageviews"`
	Sessions  []Point `json:"sessions"`
}

// Metric is one row of a ranked metric listing (a page URL, a referrer, a
// country code) with its count.
type Metric struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// MetricType selects which dimension a metrics query ranks by.
type MetricType string

// Supported metric dimensions.
const (
	MetricURL      MetricType = "url"
	MetricReferrer MetricType = "referrer"
	MetricBrowser  MetricType = "browser"
	MetricOS       MetricType = "os"
	MetricDevice   MetricType = "device"
	MetricCountry  MetricType = "country"
	MetricLanguage MetricType = "language"
	MetricEvent    MetricType = "event"
)

// TimeUnit is the bucketing granularity for time-series queries.
type TimeUnit string

// Supported time-series units.
const (
	UnitHour  TimeUnit = "hour"
	UnitDay   TimeUnit = "day"
	UnitMonth TimeUnit = "month"
	UnitYear  TimeUnit = "year"
)

// Summary aggregates one reporting period's stats and top rankings. The GA4
// and Search fields are nil unless the matching source is configured.
type Summary struct {
	Range        Range
	Stats        Stats
	TopPages     []Metric
	TopReferrers []Metric
	TopCountries []Metric
	TopBrowsers  []Metric
	TopDevices   []Metric
	GA4          *GA4Summary
	Search       *SearchSummary
}

// GA4Summary is the Google Analytics portion of a summary.
type GA4Summary struct {
	Key          GA4KeyMetrics
	TopPages     []GA4PageStat
	TopCountries []GA4CountryStat
}

// SearchSummary is the Search Console portion of a summary. Aggregates are
// derived from the top queries, the way operators read the dashboard.
type SearchSummary struct {
	TopQueries []SearchRow
	TopPages   []SearchRow
}

// Totals sums clicks and impressions over the top queries.
func (s SearchSummary) Totals() (clicks, impressions float64) {
	for _, q := range s.TopQueries {
		clicks += q.Clicks
		impressions += q.Impressions
	}
	return clicks, impressions
}

// AverageCTR is total clicks over total impressions, zero when empty.
func (s SearchSummary) AverageCTR() float64 {
	clicks, impressions := s.Totals()
	if impressions == 0 {
		return 0
	}
	return clicks / impressions
}

// AveragePosition is the mean position across the top queries.
func (s SearchSummary) AveragePosition() float64 {
	if len(s.TopQueries) == 0 {
		return 0
	}
	var sum float64
	for _, q := range s.TopQueries {
		sum += q.Position
	}
	return sum / float64(len(s.TopQueries))
}
