package board

import (
	"regexp"
	"strings"
	"time"

	"github.com/droverhq/drover/internal/domain"
)

// labelDomains maps board label names (and description keywords) to agent
// domains. Bilingual on purpose: the boards this runs against mix English and
// French labels. Unmapped input falls back to keyword scanning, then to the
// catch-all strategy domain.
var labelDomains = map[string]domain.Domain{ //nolint:gochecknoglobals // Fixed mapping table
	"seo":             domain.DomainSEO,
	"référencement":   domain.DomainSEO,
	"content":         domain.DomainContent,
	"contenu":         domain.DomainContent,
	"rédaction":       domain.DomainContent,
	"ads":             domain.DomainAds,
	"publicité":       domain.DomainAds,
	"paid media":      domain.DomainAds,
	"analytics":       domain.DomainAnalytics,
	"data":            domain.DomainAnalytics,
	"social":          domain.DomainSocial,
	"réseaux sociaux": domain.DomainSocial,
	"email":           domain.DomainEmail,
	"emailing":        domain.DomainEmail,
	"crm":             domain.DomainEmail,
	"brand":           domain.DomainBrand,
	"marque":          domain.DomainBrand,
	"strategy":        domain.DomainStrategy,
	"stratégie":       domain.DomainStrategy,
}

// stageNames maps normalized board list names to workflow stages, with
// bilingual synonyms.
var stageNames = map[string]domain.Stage{ //nolint:gochecknoglobals // Fixed mapping table
	"backlog":     domain.StageBacklog,
	"à faire":     domain.StageTodo,
	"todo":        domain.StageTodo,
	"to do":       domain.StageTodo,
	"en cours":    domain.StageInProgress,
	"in progress": domain.StageInProgress,
	"in_progress": domain.StageInProgress,
	"review":      domain.StageReview,
	"en review":   domain.StageReview,
	"à valider":   domain.StageReview,
	"done":        domain.StageDone,
	"terminé":     domain.StageDone,
	"fait":        domain.StageDone,
}

// domainKeywordOrder fixes the scan order for the keyword fallback so that a
// card matching several keywords always resolves to the same domain.
var domainKeywordOrder = []string{ //nolint:gochecknoglobals // Fixed mapping table
	"seo", "référencement",
	"content", "contenu", "rédaction",
	"ads", "publicité", "paid media",
	"analytics", "data",
	"social", "réseaux sociaux",
	"email", "emailing", "crm",
	"brand", "marque",
	"strategy", "stratégie",
}

// contextLine matches **Key**: Value lines in card descriptions.
var contextLine = regexp.MustCompile(`\*\*([^*]+)\*\*\s*:\s*(.+)`)

// listNameToStage maps a board list name to a workflow stage.
func listNameToStage(name string) (domain.Stage, bool) {
	stage, ok := stageNames[strings.ToLower(strings.TrimSpace(name))]
	return stage, ok
}

// ParseCard normalizes a board card into a Task. Parsing never fails: every
// field has a defined fallback, so the resulting task always carries in-set
// enum values.
func (c *Client) ParseCard(card Card) domain.Task {
	return domain.Task{
		ID:              "task_" + card.ID,
		Title:           card.Name,
		Description:     card.Desc,
		Domain:          detectDomain(card),
		Stage:           c.detectStage(card.ListID),
		Priority:        c.detectPriority(card),
		CardID:          card.ID,
		CardURL:         card.URL,
		Due:             card.Due,
		Context:         extractContext(card.Desc),
		DeliverableType: detectDeliverableType(card),
	}
}

// detectDomain scans card labels against the label table, falls back to a
// keyword scan of title+description, and defaults to strategy.
func detectDomain(card Card) domain.Domain {
	for _, label := range card.Labels {
		if d, ok := labelDomains[strings.ToLower(label.Name)]; ok {
			return d
		}
	}

	text := strings.ToLower(card.Name + " " + card.Desc)
	for _, keyword := range domainKeywordOrder {
		if strings.Contains(text, keyword) {
			return labelDomains[keyword]
		}
	}

	return domain.DomainStrategy
}

// detectStage resolves the card's containing list through the cached list map.
// Unknown lists default to todo.
func (c *Client) detectStage(listID string) domain.Stage {
	list, ok := c.lists[listID]
	if !ok {
		return domain.StageTodo
	}
	if stage, ok := listNameToStage(list.Name); ok {
		return stage
	}
	return domain.StageTodo
}

// detectPriority scans labels for urgency keywords, then derives priority
// from due-date proximity, defaulting to medium.
func (c *Client) detectPriority(card Card) domain.Priority {
	for _, label := range card.Labels {
		name := strings.ToLower(label.Name)
		switch {
		case strings.Contains(name, "urgent"):
			return domain.PriorityUrgent
		case strings.Contains(name, "high"), strings.Contains(name, "prioritaire"):
			return domain.PriorityHigh
		case strings.Contains(name, "low"), strings.Contains(name, "bas"):
			return domain.PriorityLow
		}
	}

	if card.Due != nil {
		untilDue := card.Due.Sub(c.clk.Now())
		if untilDue < 24*time.Hour {
			return domain.PriorityUrgent
		}
		if untilDue < 72*time.Hour {
			return domain.PriorityHigh
		}
	}

	return domain.PriorityMedium
}

// detectDeliverableType keyword-scans title+description, defaulting to document.
func detectDeliverableType(card Card) domain.DeliverableType {
	text := strings.ToLower(card.Name + " " + card.Desc)
	switch {
	case strings.Contains(text, "pull request"), strings.Contains(text, "pr "),
		strings.Contains(text, "code"):
		return domain.DeliverablePullRequest
	case strings.Contains(text, "review"), strings.Contains(text, "valider"):
		return domain.DeliverableReviewRequest
	case strings.Contains(text, "rapport"), strings.Contains(text, "report"),
		strings.Contains(text, "analyse"):
		return domain.DeliverableReport
	case strings.Contains(text, "campagne"), strings.Contains(text, "campaign"):
		return domain.DeliverableCampaignConfig
	}
	return domain.DeliverableDocument
}

// extractContext pulls **Key**: Value lines out of a card description into a
// flat, lowercase-keyed map.
func extractContext(desc string) map[string]string {
	matches := contextLine.FindAllStringSubmatch(desc, -1)
	if len(matches) == 0 {
		return nil
	}
	ctx := make(map[string]string, len(matches))
	for _, m := range matches {
		ctx[strings.ToLower(strings.TrimSpace(m[1]))] = strings.TrimSpace(m[2])
	}
	return ctx
}
