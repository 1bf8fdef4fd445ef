package agent

import (
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/constants"
	"github.com/droverhq/drover/internal/domain"
)

var delegateBlock = regexp.MustCompile(`(?s)### ` + SectionDelegate + `[ \t]*\r?\n(.*?)### ` + SectionEndDelegate)

// ExtractDelegations pulls delegation requests out of a model response.
// Model output is untrusted: an invalid domain skips the block, the limit
// stops extraction, and title and description are length-capped. Blocks
// missing domain, title, or description are dropped silently. A limit of
// zero or less extracts nothing.
func ExtractDelegations(response string, limit int, logger zerolog.Logger) []domain.CardCreationRequest {
	var requests []domain.CardCreationRequest

	for _, match := range delegateBlock.FindAllStringSubmatch(response, -1) {
		if len(requests) >= limit {
			logger.Warn().
				Int("limit", limit).
				Msg("delegation limit reached, ignoring further delegations")
			break
		}

		block := match[1]
		domainField := extractInlineField(block, "domain")
		title := extractInlineField(block, "title")
		description := extractInlineField(block, "description")
		priority := extractInlineField(block, "priority")

		if !domain.IsValidDomain(domainField) {
			logger.Warn().Str("domain", domainField).Msg("invalid delegation domain, skipping")
			continue
		}
		if title == "" || description == "" {
			continue
		}

		requests = append(requests, domain.CardCreationRequest{
			Title:        truncate(title, constants.MaxDelegationTitleLen),
			Description:  truncate(description, constants.MaxDelegationDescLen),
			Stage:        domain.StageTodo,
			TargetDomain: domain.Domain(domainField),
			Priority:     delegationPriority(priority),
		})
	}

	return requests
}

// extractInlineField returns the value of a "**field**: value" line.
func extractInlineField(block, field string) string {
	re := regexp.MustCompile(`(?i)\*\*` + regexp.QuoteMeta(field) + `\*\*:\s*(.+)`)
	if m := re.FindStringSubmatch(block); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func delegationPriority(value string) domain.Priority {
	if domain.IsValidPriority(value) {
		return domain.Priority(value)
	}
	return domain.PriorityMedium
}

// truncate caps s at limit runes without splitting a multi-byte character.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
