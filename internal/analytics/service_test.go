package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceSummary(t *testing.T) {
	t.Parallel()

	_, client := newAnalyticsServer(t, false)
	service := NewService(client)

	summary, err := service.Summary(context.Background(), testRange())
	require.NoError(t, err)

	assert.InDelta(t, 1200, summary.Stats.Pageviews.Value, 0.001)
	require.Len(t, summary.TopPages, 2)
	assert.Equal(t, "/pricing", summary.TopPages[1].X)
	require.Len(t, summary.TopReferrers, 1)
	assert.Equal(t, "google.com", summary.TopReferrers[0].X)
	require.Len(t, summary.TopCountries, 1)
	require.Len(t, summary.TopBrowsers, 1)
	require.Len(t, summary.TopDevices, 1)
}

func TestServiceSummaryAuthFailure(t *testing.T) {
	t.Parallel()

	_, client := newAnalyticsServer(t, true)
	service := NewService(client)

	_, err := service.Summary(context.Background(), testRange())
	require.Error(t, err)
}

func TestFormatMarkdown(t *testing.T) {
	t.Parallel()

	summary := &Summary{
		Range: testRange(),
		Stats: Stats{
			Pageviews: MetricValue{Value: 1200, Prev: 1000},
			Visitors:  MetricValue{Value: 300.5, Prev: 280},
		},
		TopPages:     []Metric{{X: "/", Y: 500}, {X: "/pricing", Y: 200}},
		TopCountries: []Metric{{X: "FR", Y: 250}},
	}

	out := FormatMarkdown(summary)

	assert.Contains(t, out, "# Analytics Report")
	assert.Contains(t, out, "**Period:** 2025-05-16 — 2025-06-15")
	assert.Contains(t, out, "| Pageviews | 1200 | 1000 |")
	assert.Contains(t, out, "| Visitors | 300.5 | 280 |")
	assert.Contains(t, out, "### Top Pages")
	assert.Contains(t, out, "| /pricing | 200 |")
	assert.Contains(t, out, "### Top Countries")
	assert.NotContains(t, out, "### Top Browsers", "empty rankings are omitted")
}

func TestFormatPageviews(t *testing.T) {
	t.Parallel()

	out := FormatPageviews(PageviewsResponse{
		Pageviews: []Point{{T: "2025-06-01", Y: 40}, {T: "2025-06-02", Y: 55}},
		Sessions:  []Point{{T: "2025-06-01", Y: 30}},
	})

	assert.Contains(t, out, "| 2025-06-01 | 40 | 30 |")
	assert.Contains(t, out, "| 2025-06-02 | 55 | 0 |", "missing session bucket renders as zero")

	assert.Empty(t, FormatPageviews(PageviewsResponse{}))
}
