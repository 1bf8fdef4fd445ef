package analytics

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day-range bounds applied to anything detected from task text.
const (
	MinRangeDays     = 1
	MaxRangeDays     = 365
	DefaultRangeDays = 30
)

var (
	daysPattern   = regexp.MustCompile(`(\d+)\s*(?:jours?|days?)`)
	weeksPattern  = regexp.MustCompile(`(\d+)\s*(?:semaines?|weeks?)`)
	monthsPattern = regexp.MustCompile(`(\d+)\s*(?:mois|months?)`)
	yearsPattern  = regexp.MustCompile(`(\d+)\s*(?:ans?|years?)`)
	yearLiteral   = regexp.MustCompile(`20\d{2}`)
)

// keywordRanges maps bilingual period keywords to a day count. Scanned in
// order so longer periods are not shadowed by substrings.
var keywordRanges = []struct { //nolint:gochecknoglobals // Fixed mapping table
	keyword string
	days    int
}{
	{"cette semaine", 7},
	{"this week", 7},
	{"ce trimestre", 90},
	{"this quarter", 90},
	{"ce mois", 30},
	{"this month", 30},
	{"cette année", 365},
	{"this year", 365},
	{"ytd", 365},
	{"hier", 1},
	{"yesterday", 1},
	{"aujourd'hui", 1},
	{"today", 1},
}

// monthStarts maps bilingual month names to calendar months, for phrases like
// "depuis janvier" or "since March".
var monthStarts = map[string]time.Month{ //nolint:gochecknoglobals // Fixed mapping table
	"janvier": time.January, "january": time.January,
	"février": time.February, "february": time.February,
	"mars": time.March, "march": time.March,
	"avril": time.April, "april": time.April,
	"mai": time.May, "may": time.May,
	"juin": time.June, "june": time.June,
	"juillet": time.July, "july": time.July,
	"août": time.August, "august": time.August,
	"septembre": time.September, "september": time.September,
	"octobre": time.October, "october": time.October,
	"novembre": time.November, "november": time.November,
	"décembre": time.December, "december": time.December,
}

// monthOrder fixes the scan order for month-name detection.
var monthOrder = []string{ //nolint:gochecknoglobals // Fixed mapping table
	"janvier", "january", "février", "february", "mars", "march",
	"avril", "april", "mai", "may", "juin", "june",
	"juillet", "july", "août", "august", "septembre", "september",
	"octobre", "october", "novembre", "november", "décembre", "december",
}

// DaysAgo returns the range covering the last n days, ending at now.
func DaysAgo(now time.Time, n int) Range {
	return Range{
		StartAt: now.AddDate(0, 0, -n),
		EndAt:   now,
	}
}

// UnitForDays picks a sensible time-series bucket for a range length:
// hourly up to a week, daily up to a quarter, monthly beyond.
func UnitForDays(days int) TimeUnit {
	switch {
	case days <= 7:
		return UnitHour
	case days <= 90:
		return UnitDay
	default:
		return UnitMonth
	}
}

// DetectDays scans free-form task text for a reporting period, in French or
// English: explicit counts ("7 jours", "2 weeks", "3 mois", "1 an"), period
// keywords ("this week", "ce trimestre", "ytd"), or a month name anchoring
// the period start ("depuis janvier"). The result is clamped to
// [MinRangeDays, MaxRangeDays]; text with no period signal yields
// DefaultRangeDays.
func DetectDays(text string, now time.Time) int {
	lower := strings.ToLower(text)

	if m := daysPattern.FindStringSubmatch(lower); m != nil {
		return clampDays(atoiSafe(m[1]))
	}
	if m := weeksPattern.FindStringSubmatch(lower); m != nil {
		return clampDays(atoiSafe(m[1]) * 7)
	}
	if m := monthsPattern.FindStringSubmatch(lower); m != nil {
		return clampDays(atoiSafe(m[1]) * 30)
	}
	if m := yearsPattern.FindStringSubmatch(lower); m != nil {
		return clampDays(atoiSafe(m[1]) * 365)
	}

	for _, kw := range keywordRanges {
		if strings.Contains(lower, kw.keyword) {
			return kw.days
		}
	}

	for _, name := range monthOrder {
		if !strings.Contains(lower, name) {
			continue
		}
		year := now.Year()
		if m := yearLiteral.FindString(lower); m != "" {
			year = atoiSafe(m)
		}
		start := time.Date(year, monthStarts[name], 1, 0, 0, 0, 0, now.Location())
		days := int(now.Sub(start).Hours()/24) + 1
		return clampDays(days)
	}

	return DefaultRangeDays
}

func clampDays(n int) int {
	if n < MinRangeDays {
		return MinRangeDays
	}
	if n > MaxRangeDays {
		return MaxRangeDays
	}
	return n
}

func atoiSafe(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
