package agent

import (
	"regexp"
	"strings"
)

// Section markers the structured-response grammar recognizes. Extraction
// stops only at one of these, never at an arbitrary "###" heading, so
// deliverable content may freely contain its own sub-headings.
const (
	SectionSummary            = "SUMMARY"
	SectionDeliverableTitle   = "DELIVERABLE_TITLE"
	SectionDeliverableContent = "DELIVERABLE_CONTENT"
	SectionNextSteps          = "NEXT_STEPS"
	SectionDelegate           = "DELEGATE"
	SectionEndDelegate        = "END_DELEGATE"
)

// sectionMarkers in grammar order.
var sectionMarkers = []string{ //nolint:gochecknoglobals // Fixed grammar
	SectionSummary,
	SectionDeliverableTitle,
	SectionDeliverableContent,
	SectionNextSteps,
	SectionDelegate,
	SectionEndDelegate,
}

// ExtractSection returns the trimmed body of one marked section: the text
// between "### <section>" and the next known marker (or end of input).
// Returns "" when the section is absent.
func ExtractSection(text, section string) string {
	// Tolerate trailing spaces, CRLF, and a marker at end of input.
	start := regexp.MustCompile(`(?i)###[ \t]*` + regexp.QuoteMeta(section) + `[ \t]*(?:\r?\n|$)`)
	loc := start.FindStringIndex(text)
	if loc == nil {
		return ""
	}

	body := text[loc[1]:]
	if stop := stopPattern(section).FindStringIndex(body); stop != nil {
		body = body[:stop[0]]
	}
	return strings.TrimSpace(body)
}

// stopPattern matches any known marker heading other than section.
// Markers are matched longest-first so DELIVERABLE_CONTENT is not cut at a
// DELIVERABLE_TITLE prefix match and END_DELEGATE is preferred over DELEGATE.
func stopPattern(section string) *regexp.Regexp {
	others := make([]string, 0, len(sectionMarkers)-1)
	for _, marker := range sortedByLength(sectionMarkers) {
		if marker != section {
			others = append(others, marker)
		}
	}
	return regexp.MustCompile(`(?i)###[ \t]*(?:` + strings.Join(others, "|") + `)\b`)
}

func sortedByLength(markers []string) []string {
	out := make([]string, len(markers))
	copy(out, markers)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
