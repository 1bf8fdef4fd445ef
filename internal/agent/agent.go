package agent

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/droverhq/drover/internal/analytics"
	"github.com/droverhq/drover/internal/clock"
	"github.com/droverhq/drover/internal/constants"
	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
	"github.com/droverhq/drover/internal/sanitize"
)

// depthContextKey is the description context key carrying delegation depth.
// Delegated cards get it appended to their description so the depth survives
// the round trip through the board.
const depthContextKey = "delegation_depth"

// CardMaker creates board cards for delegated sub-tasks.
type CardMaker interface {
	CreateFromRequest(ctx context.Context, req domain.CardCreationRequest) (*domain.CardCreationResult, error)
}

// AnalyticsSource supplies live analytics for analytics-domain tasks.
type AnalyticsSource interface {
	Summary(ctx context.Context, r analytics.Range) (*analytics.Summary, error)
	Pageviews(ctx context.Context, r analytics.Range, unit analytics.TimeUnit) (analytics.PageviewsResponse, error)
	ActiveVisitors(ctx context.Context) (int, error)
}

// Agent executes tasks for one domain. It builds the prompt, runs the
// completion, parses the structured response into a deliverable, and creates
// cards for any delegations the model requested.
type Agent struct {
	def       *Definition
	completer Completer
	cards     CardMaker
	analytics AnalyticsSource
	clk       clock.Clock
	logger    zerolog.Logger
	maxDepth  int

	maxDelegations int
}

// Option configures an Agent.
type Option func(*Agent)

// WithCardMaker enables delegation by giving the agent a card creator.
func WithCardMaker(cards CardMaker) Option {
	return func(a *Agent) { a.cards = cards }
}

// WithAnalytics gives the agent a live analytics source. Only used for
// analytics-domain tasks.
func WithAnalytics(source AnalyticsSource) Option {
	return func(a *Agent) { a.analytics = source }
}

// WithClock substitutes the clock.
func WithClock(clk clock.Clock) Option {
	return func(a *Agent) { a.clk = clk }
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(a *Agent) {
		a.logger = logger.With().
			Str("component", "agent").
			Str("domain", string(a.def.Domain)).
			Logger()
	}
}

// WithMaxDelegationDepth overrides the delegation depth ceiling.
func WithMaxDelegationDepth(depth int) Option {
	return func(a *Agent) { a.maxDepth = depth }
}

// WithMaxDelegations overrides the per-execution delegation cap.
func WithMaxDelegations(n int) Option {
	return func(a *Agent) { a.maxDelegations = n }
}

// New creates an agent for a definition.
func New(def *Definition, completer Completer, opts ...Option) *Agent {
	a := &Agent{
		def:       def,
		completer: completer,
		clk:       clock.RealClock{},
		logger:    zerolog.Nop(),
		maxDepth:  constants.MaxDelegationDepth,

		maxDelegations: constants.MaxDelegationsPerTask,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Definition returns the agent's definition.
func (a *Agent) Definition() *Definition {
	return a.def
}

// Name returns the agent's display name.
func (a *Agent) Name() string {
	return a.def.Name
}

// Execute runs one task end to end and returns the structured result.
// A failed delegation card creation fails the whole execution so the
// orchestrator retriages the task rather than silently dropping sub-tasks.
func (a *Agent) Execute(ctx context.Context, task domain.Task) (*domain.AgentResult, error) {
	a.logger.Info().Str("task_id", task.ID).Str("title", task.Title).Msg("processing task")

	analyticsContext := ""
	if a.analytics != nil && a.def.Domain == domain.DomainAnalytics {
		fetched, err := a.fetchAnalyticsContext(ctx, task)
		if err != nil {
			// Degraded, not fatal: the agent still runs on the card text alone.
			a.logger.Warn().Str("error", truncate(err.Error(), 200)).Msg("could not fetch analytics")
		} else {
			analyticsContext = fetched
		}
	}

	depth := taskDepth(task)
	allowDelegation := a.cards != nil && a.maxDelegations > 0 && depth < a.maxDepth
	if a.cards != nil && !allowDelegation {
		a.logger.Info().
			Int("depth", depth).
			Int("max_delegations", a.maxDelegations).
			Msg("delegation disabled for this task")
	}

	prompt := BuildPrompt(task, analyticsContext, allowDelegation, a.maxDelegations)
	response, err := a.completer.Complete(ctx, a.def.SystemPrompt, prompt)
	if err != nil {
		return nil, errors.Wrapf(err, "agent %s executing %s", a.def.Domain, task.ID)
	}

	deliverable := a.parseDeliverable(task, response)

	var created []domain.CardCreationResult
	if allowDelegation {
		created, err = a.createDelegatedCards(ctx, response, task, depth)
		if err != nil {
			return nil, err
		}
	}

	summary := ExtractSection(response, SectionSummary)
	if summary == "" {
		summary = "Tâche complétée."
	}
	if len(created) > 0 {
		titles := make([]string, len(created))
		for i, c := range created {
			titles[i] = c.Title
		}
		summary += fmt.Sprintf("\n\n📋 %d sous-tâche(s) créée(s) : %s", len(created), strings.Join(titles, ", "))
	}

	status := domain.StatusSuccess
	if task.DeliverableType == domain.DeliverableReviewRequest {
		status = domain.StatusNeedsReview
	}

	return &domain.AgentResult{
		TaskID:       task.ID,
		Domain:       a.def.Domain,
		Status:       status,
		Deliverable:  deliverable,
		Summary:      summary,
		NextSteps:    parseNextSteps(response),
		BoardComment: a.buildBoardComment(deliverable, created),
	}, nil
}

// parseNextSteps reads the bullet list of the next-steps section.
func parseNextSteps(response string) []string {
	section := ExtractSection(response, SectionNextSteps)
	if section == "" {
		return nil
	}
	var steps []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line != "" {
			steps = append(steps, line)
		}
	}
	return steps
}

// createDelegatedCards extracts delegation blocks and creates one card per
// accepted request, carrying depth forward on each child.
func (a *Agent) createDelegatedCards(ctx context.Context, response string, task domain.Task, depth int) ([]domain.CardCreationResult, error) {
	delegations := ExtractDelegations(response, a.maxDelegations, a.logger)
	if len(delegations) == 0 {
		return nil, nil
	}

	results := make([]domain.CardCreationResult, 0, len(delegations))
	for _, req := range delegations {
		req.ParentCardID = task.CardID
		req.Depth = depth + 1
		req.Description += fmt.Sprintf("\n\n**%s**: %d", depthContextKey, req.Depth)

		result, err := a.cards.CreateFromRequest(ctx, req)
		if err != nil {
			return nil, errors.Wrapf(errors.Wrap(errors.ErrDelegationFailed, err.Error()),
				"delegating %q", req.Title)
		}
		results = append(results, *result)
	}
	return results, nil
}

// parseDeliverable turns the structured response into a deliverable, deriving
// the location from the slug of the task title, never from model output.
func (a *Agent) parseDeliverable(task domain.Task, response string) domain.Deliverable {
	title := ExtractSection(response, SectionDeliverableTitle)
	if title == "" {
		title = task.Title
	}
	content := ExtractSection(response, SectionDeliverableContent)
	if content == "" {
		content = response
	}

	return domain.Deliverable{
		Type:     task.DeliverableType,
		Title:    title,
		Content:  content,
		Location: deliverableLocation(task.DeliverableType, sanitize.Slug(task.Title)),
		Metadata: domain.DeliverableMetadata{
			Agent:       a.def.Name,
			Domain:      a.def.Domain,
			TaskID:      task.ID,
			GeneratedAt: a.clk.Now().UTC().Format(time.RFC3339),
		},
	}
}

// deliverableLocation maps a deliverable type to its slug-derived target.
func deliverableLocation(t domain.DeliverableType, slug string) string {
	switch t {
	case domain.DeliverableDocument:
		return "deliverables/docs/" + slug + ".md"
	case domain.DeliverablePullRequest:
		return "feature/" + slug
	case domain.DeliverableReviewRequest:
		return "review/" + slug
	case domain.DeliverableReport:
		return "deliverables/reports/" + slug + ".md"
	case domain.DeliverableCampaignConfig:
		return "deliverables/campaigns/" + slug + ".json"
	}
	return "deliverables/" + slug + ".md"
}

// fetchAnalyticsContext queries the period summary, the pageview series, and
// the live visitor count in parallel and renders them as the analytics block
// of the prompt.
func (a *Agent) fetchAnalyticsContext(ctx context.Context, task domain.Task) (string, error) {
	now := a.clk.Now()
	days := analytics.DetectDays(task.Title+" "+task.Description, now)
	a.logger.Debug().Int("days", days).Msg("detected analytics time range")

	r := analytics.DaysAgo(now, days)
	unit := analytics.UnitForDays(days)

	var (
		summary *analytics.Summary
		pv      analytics.PageviewsResponse
		active  int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.analytics.Summary(gctx, r)
		summary = s
		return err
	})
	g.Go(func() error {
		p, err := a.analytics.Pageviews(gctx, r, unit)
		pv = p
		return err
	})
	g.Go(func() error {
		n, err := a.analytics.ActiveVisitors(gctx)
		active = n
		return err
	})
	if err := g.Wait(); err != nil {
		return "", errors.Wrap(err, "fetching analytics context")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Période analysée : %s → %s (%d jours)\n",
		r.StartAt.Format("2006-01-02"), r.EndAt.Format("2006-01-02"), days)
	fmt.Fprintf(&b, "### Visiteurs actifs en ce moment : %d\n\n", active)
	b.WriteString(analytics.FormatMarkdown(summary))
	if series := analytics.FormatPageviews(pv); series != "" {
		b.WriteString("\n\n")
		b.WriteString(series)
	}
	return b.String(), nil
}

// buildBoardComment renders the completion comment posted back on the card.
func (a *Agent) buildBoardComment(deliverable domain.Deliverable, created []domain.CardCreationResult) string {
	delegationBlock := ""
	if len(created) > 0 {
		lines := make([]string, len(created))
		for i, c := range created {
			lines[i] = fmt.Sprintf("- [%s](%s) → %s", c.Title, c.CardURL, c.TargetDomain)
		}
		delegationBlock = "\n\n📋 **Sous-tâches créées** :\n" + strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`🤖 **%s** a terminé cette tâche.

**Livrable** : %s
**Type** : %s
**Emplacement** : `+"`%s`"+`%s
---
*Traité automatiquement le %s*`,
		a.def.Name, deliverable.Title, deliverable.Type, deliverable.Location,
		delegationBlock, a.clk.Now().Format("02/01/2006"))
}

// taskDepth reads the delegation depth a card carries in its parsed context.
// Operator-created cards have none and sit at depth zero.
func taskDepth(task domain.Task) int {
	raw, ok := task.Context[depthContextKey]
	if !ok {
		return 0
	}
	depth, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || depth < 0 {
		return 0
	}
	return depth
}
