package agent

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
)

// plannerSystemPrompt frames the decomposition call.
const plannerSystemPrompt = "Tu es un chef de projet marketing IA expert. Tu décomposes des objectifs en tâches précises et actionnables pour des agents spécialisés."

// taskBlockStart and taskBlockEnd delimit one planned task in the planner's
// response grammar.
const (
	taskBlockStart = "---TASK_START---"
	taskBlockEnd   = "---TASK_END---"
)

var (
	plannerFieldLine = regexp.MustCompile(`(?m)^([A-Z_]+):\s*(.*)$`)
	contextPairLine  = regexp.MustCompile(`^([^:]+):\s*(.+)$`)
)

// plannerKeywords routes objective text to candidate domains.
var plannerKeywords = []struct { //nolint:gochecknoglobals // Fixed mapping table
	domain   domain.Domain
	keywords []string
}{
	{domain.DomainSEO, []string{"seo", "référencement", "mots-clés", "keywords", "backlink", "search"}},
	{domain.DomainContent, []string{"contenu", "content", "article", "blog", "rédaction", "editorial"}},
	{domain.DomainAds, []string{"ads", "publicité", "campagne", "google ads", "meta ads", "paid"}},
	{domain.DomainAnalytics, []string{"analytics", "data", "dashboard", "tracking", "kpi", "metrics"}},
	{domain.DomainSocial, []string{"social", "réseaux sociaux", "instagram", "linkedin", "tiktok", "community"}},
	{domain.DomainEmail, []string{"email", "newsletter", "emailing", "crm", "automation", "nurturing"}},
	{domain.DomainBrand, []string{"marque", "brand", "identité", "positionnement", "logo", "charte"}},
	{domain.DomainStrategy, []string{"stratégie", "strategy", "plan", "budget", "growth", "marché"}},
}

// Planner decomposes a free-form objective into one generated prompt per
// relevant agent, using the model for the decomposition itself.
type Planner struct {
	completer Completer
	registry  *Registry
	logger    zerolog.Logger
}

// NewPlanner creates a planner over a registry. The completer should be
// configured with a smaller output budget than task execution.
func NewPlanner(completer Completer, registry *Registry, logger zerolog.Logger) *Planner {
	return &Planner{
		completer: completer,
		registry:  registry,
		logger:    logger.With().Str("component", "planner").Logger(),
	}
}

// GenerateFromObjective decomposes an objective into tasks for the relevant
// domains, detected from the objective text unless explicitly given.
func (p *Planner) GenerateFromObjective(ctx context.Context, objective string, extra map[string]string, targets []domain.Domain) ([]domain.GeneratedPrompt, error) {
	if len(targets) == 0 {
		targets = DetectRelevantDomains(objective)
	}
	p.logger.Info().Str("objective", objective).Int("targets", len(targets)).Msg("decomposing objective")

	response, err := p.completer.Complete(ctx, plannerSystemPrompt, p.buildMetaPrompt(objective, extra, targets))
	if err != nil {
		return nil, errors.Wrap(err, "planning objective")
	}

	prompts := parsePlannedTasks(response)
	if len(prompts) == 0 {
		return nil, errors.Wrap(errors.ErrUnexpectedResponse, "planner produced no task blocks")
	}
	return prompts, nil
}

// GenerateForAgent produces a single prompt aimed at one agent domain.
func (p *Planner) GenerateForAgent(ctx context.Context, target domain.Domain, objective string, extra map[string]string) (*domain.GeneratedPrompt, error) {
	def, err := p.registry.ForDomain(target)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("Tu es un chef de projet. Tu dois rédiger des instructions précises pour un agent spécialisé.\n\n")
	fmt.Fprintf(&b, "## Agent cible\n**%s** — %s\nCapacités : %s\n\n", def.Name, def.Description, strings.Join(def.Capabilities, ", "))
	fmt.Fprintf(&b, "## Objectif\n%s\n\n", objective)
	fmt.Fprintf(&b, "## Contexte\n%s\n\n", formatPlannerContext(extra))
	b.WriteString(`## Instructions
Génère un bloc structuré :

TITLE: <titre court et actionnable>
DELIVERABLE_TYPE: <document|pull_request|review_request|report|campaign_config>
INSTRUCTIONS:
<Instructions complètes et détaillées pour l'agent. Sois très spécifique sur :
- Le livrable attendu
- Le format et la structure
- Les données à utiliser
- Les standards de qualité>
ACCEPTANCE_CRITERIA:
- <critère 1>
- <critère 2>
- <critère 3>`)

	response, err := p.completer.Complete(ctx, plannerSystemPrompt, b.String())
	if err != nil {
		return nil, errors.Wrapf(err, "generating prompt for %s", target)
	}

	prompt := parseSinglePlannedTask(target, response)
	return &prompt, nil
}

func (p *Planner) buildMetaPrompt(objective string, extra map[string]string, targets []domain.Domain) string {
	var agents []string
	for _, target := range targets {
		def, err := p.registry.ForDomain(target)
		if err != nil {
			continue
		}
		agents = append(agents, fmt.Sprintf("- **%s** (%s): %s. Capacités: %s",
			def.Name, def.Domain, def.Description, strings.Join(def.Capabilities, ", ")))
	}

	var b strings.Builder
	b.WriteString("Tu es un chef de projet marketing IA. Tu dois décomposer un objectif en tâches concrètes assignées à des agents spécialisés.\n\n")
	fmt.Fprintf(&b, "## Objectif à décomposer\n%s\n\n", objective)
	fmt.Fprintf(&b, "## Contexte\n%s\n\n", formatPlannerContext(extra))
	fmt.Fprintf(&b, "## Agents disponibles\n%s\n\n", strings.Join(agents, "\n"))
	b.WriteString(`## Instructions
Pour CHAQUE agent concerné, génère un bloc structuré avec exactement ce format (un bloc par agent) :

` + taskBlockStart + `
TARGET_DOMAIN: <domain>
TITLE: <titre court et actionnable de la tâche>
DELIVERABLE_TYPE: <document|pull_request|review_request|report|campaign_config>
INSTRUCTIONS:
<Instructions détaillées et spécifiques pour l'agent. Inclure :
- Ce qu'il doit produire exactement
- Les contraintes et standards à respecter
- Les données ou inputs disponibles
- Le format de sortie attendu>
CONTEXT_KEY_VALUES:
<key1>: <value1>
<key2>: <value2>
ACCEPTANCE_CRITERIA:
- <critère 1>
- <critère 2>
- <critère 3>
` + taskBlockEnd + `

Génère uniquement les tâches pertinentes. Sois précis et actionnable.`)
	return b.String()
}

// DetectRelevantDomains scans an objective for domain keywords. An objective
// matching nothing routes to strategy.
func DetectRelevantDomains(objective string) []domain.Domain {
	text := strings.ToLower(objective)

	var matched []domain.Domain
	for _, entry := range plannerKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, entry.domain)
				break
			}
		}
	}
	if len(matched) == 0 {
		matched = append(matched, domain.DomainStrategy)
	}
	return matched
}

// parsePlannedTasks splits the response at task block markers and parses each
// block. Blocks missing a valid domain or a title are dropped.
func parsePlannedTasks(response string) []domain.GeneratedPrompt {
	var prompts []domain.GeneratedPrompt

	blocks := strings.Split(response, taskBlockStart)
	for _, block := range blocks[1:] {
		if idx := strings.Index(block, taskBlockEnd); idx >= 0 {
			block = block[:idx]
		}

		target := extractPlannerField(block, "TARGET_DOMAIN")
		title := extractPlannerField(block, "TITLE")
		if !domain.IsValidDomain(target) || title == "" {
			continue
		}

		prompts = append(prompts, domain.GeneratedPrompt{
			Title:               title,
			TargetDomain:        domain.Domain(target),
			Instructions:        extractPlannerMultiline(block, "INSTRUCTIONS"),
			Context:             parseContextPairs(extractPlannerMultiline(block, "CONTEXT_KEY_VALUES")),
			ExpectedDeliverable: plannedDeliverableType(block),
			AcceptanceCriteria:  parseCriteria(extractPlannerMultiline(block, "ACCEPTANCE_CRITERIA")),
		})
	}
	return prompts
}

func parseSinglePlannedTask(target domain.Domain, response string) domain.GeneratedPrompt {
	title := extractPlannerField(response, "TITLE")
	if title == "" {
		title = "Tâche générée"
	}
	instructions := extractPlannerMultiline(response, "INSTRUCTIONS")
	if instructions == "" {
		instructions = response
	}

	return domain.GeneratedPrompt{
		Title:               title,
		TargetDomain:        target,
		Instructions:        instructions,
		ExpectedDeliverable: plannedDeliverableType(response),
		AcceptanceCriteria:  parseCriteria(extractPlannerMultiline(response, "ACCEPTANCE_CRITERIA")),
	}
}

func plannedDeliverableType(block string) domain.DeliverableType {
	value := extractPlannerField(block, "DELIVERABLE_TYPE")
	if domain.IsValidDeliverableType(value) {
		return domain.DeliverableType(value)
	}
	return domain.DeliverableDocument
}

func extractPlannerField(text, field string) string {
	re := regexp.MustCompile(`(?m)^` + field + `:\s*(.+)$`)
	if m := re.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// extractPlannerMultiline returns the body following "FIELD:" up to the next
// uppercase field header or the end of the block.
func extractPlannerMultiline(text, field string) string {
	start := strings.Index(text, field+":")
	if start < 0 {
		return ""
	}
	body := text[start+len(field)+1:]
	if idx := plannerFieldLine.FindStringIndex(body); idx != nil {
		body = body[:idx[0]]
	}
	return strings.TrimSpace(body)
}

func parseContextPairs(text string) map[string]string {
	if text == "" {
		return nil
	}
	pairs := make(map[string]string)
	for _, line := range strings.Split(text, "\n") {
		if m := contextPairLine.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			pairs[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
		}
	}
	if len(pairs) == 0 {
		return nil
	}
	return pairs
}

func parseCriteria(text string) []string {
	if text == "" {
		return nil
	}
	var criteria []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" {
			criteria = append(criteria, line)
		}
	}
	return criteria
}

func formatPlannerContext(extra map[string]string) string {
	if len(extra) == 0 {
		return "Aucun contexte additionnel."
	}
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("- **%s**: %s", k, extra[k]))
	}
	return strings.Join(lines, "\n")
}
