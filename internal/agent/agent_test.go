package agent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover/internal/analytics"
	"github.com/droverhq/drover/internal/domain"
	drovererrors "github.com/droverhq/drover/internal/errors"
)

type fakeCompleter struct {
	response string
	err      error

	systemPrompts []string
	userPrompts   []string
}

func (f *fakeCompleter) Complete(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.systemPrompts = append(f.systemPrompts, systemPrompt)
	f.userPrompts = append(f.userPrompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeCardMaker struct {
	requests []domain.CardCreationRequest
	failAt   int // 1-based index of the call that fails, 0 for never
}

func (f *fakeCardMaker) CreateFromRequest(_ context.Context, req domain.CardCreationRequest) (*domain.CardCreationResult, error) {
	f.requests = append(f.requests, req)
	if f.failAt > 0 && len(f.requests) == f.failAt {
		return nil, fmt.Errorf("POST /cards: upstream returned non-success status")
	}
	return &domain.CardCreationResult{
		CardID:       fmt.Sprintf("card%d", len(f.requests)),
		CardURL:      fmt.Sprintf("https://trello.com/c/card%d", len(f.requests)),
		Title:        req.Title,
		TargetDomain: req.TargetDomain,
	}, nil
}

type fakeAnalytics struct {
	summary *analytics.Summary
	err     error
}

func (f *fakeAnalytics) Summary(context.Context, analytics.Range) (*analytics.Summary, error) {
	return f.summary, f.err
}

func (f *fakeAnalytics) Pageviews(context.Context, analytics.Range, analytics.TimeUnit) (analytics.PageviewsResponse, error) {
	return analytics.PageviewsResponse{}, f.err
}

func (f *fakeAnalytics) ActiveVisitors(context.Context) (int, error) {
	return 4, f.err
}

type frozenClock struct{ now time.Time }

func (f frozenClock) Now() time.Time                             { return f.now }
func (f frozenClock) Sleep(context.Context, time.Duration) error { return nil }

func seoDefinition(t *testing.T) *Definition {
	t.Helper()
	reg, err := LoadRegistry()
	require.NoError(t, err)
	def, err := reg.ForDomain(domain.DomainSEO)
	require.NoError(t, err)
	return def
}

func executableTask() domain.Task {
	return domain.Task{
		ID:              "task_c1",
		Title:           "Audit SEO du site",
		Description:     "Analyser les pages principales",
		Domain:          domain.DomainSEO,
		Stage:           domain.StageTodo,
		Priority:        domain.PriorityHigh,
		CardID:          "c1",
		CardURL:         "https://trello.com/c/c1",
		DeliverableType: domain.DeliverableReport,
	}
}

const structuredResponse = `### SUMMARY
Audit terminé sur les pages principales.

### DELIVERABLE_TITLE
Audit SEO complet

### DELIVERABLE_CONTENT
# Audit

Balises title à revoir.

### NEXT_STEPS
- Corriger les titles
`

func TestAgentExecute(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	completer := &fakeCompleter{response: structuredResponse}
	agent := New(seoDefinition(t), completer, WithClock(frozenClock{now: now}))

	result, err := agent.Execute(context.Background(), executableTask())
	require.NoError(t, err)

	assert.Equal(t, "task_c1", result.TaskID)
	assert.Equal(t, domain.DomainSEO, result.Domain)
	assert.Equal(t, domain.StatusSuccess, result.Status)
	assert.Equal(t, "Audit terminé sur les pages principales.", result.Summary)
	assert.Equal(t, []string{"Corriger les titles"}, result.NextSteps)

	assert.Equal(t, domain.DeliverableReport, result.Deliverable.Type)
	assert.Equal(t, "Audit SEO complet", result.Deliverable.Title)
	assert.Contains(t, result.Deliverable.Content, "Balises title à revoir.")
	assert.Equal(t, "deliverables/reports/audit-seo-du-site.md", result.Deliverable.Location)
	assert.Equal(t, "task_c1", result.Deliverable.Metadata.TaskID)
	assert.Equal(t, "2025-06-15T10:00:00Z", result.Deliverable.Metadata.GeneratedAt)

	assert.Contains(t, result.BoardComment, "**Emplacement** : `deliverables/reports/audit-seo-du-site.md`")
	assert.Contains(t, result.BoardComment, "15/06/2025")

	require.Len(t, completer.systemPrompts, 1)
	assert.Equal(t, seoDefinition(t).SystemPrompt, completer.systemPrompts[0])
}

func TestAgentExecuteFallbacks(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: "Réponse libre, sans sections."}
	agent := New(seoDefinition(t), completer)

	result, err := agent.Execute(context.Background(), executableTask())
	require.NoError(t, err)

	assert.Equal(t, "Audit SEO du site", result.Deliverable.Title)
	assert.Equal(t, "Réponse libre, sans sections.", result.Deliverable.Content)
	assert.Equal(t, "Tâche complétée.", result.Summary)
}

func TestAgentExecuteCompletionError(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{err: errors.New("completion request: timeout")}
	agent := New(seoDefinition(t), completer)

	_, err := agent.Execute(context.Background(), executableTask())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task_c1")
}

func TestAgentExecuteNeedsReview(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: structuredResponse}
	agent := New(seoDefinition(t), completer)

	task := executableTask()
	task.DeliverableType = domain.DeliverableReviewRequest

	result, err := agent.Execute(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusNeedsReview, result.Status)
	assert.Equal(t, "review/audit-seo-du-site", result.Deliverable.Location)
}

func TestAgentExecuteCreatesDelegatedCards(t *testing.T) {
	t.Parallel()

	response := structuredResponse +
		delegationBlock("content", "Rédiger l'article", "Article sur les balises title", "medium")

	cards := &fakeCardMaker{}
	completer := &fakeCompleter{response: response}
	agent := New(seoDefinition(t), completer, WithCardMaker(cards))

	result, err := agent.Execute(context.Background(), executableTask())
	require.NoError(t, err)

	require.Len(t, cards.requests, 1)
	req := cards.requests[0]
	assert.Equal(t, "c1", req.ParentCardID)
	assert.Equal(t, 1, req.Depth)
	assert.Contains(t, req.Description, "**delegation_depth**: 1")

	assert.Contains(t, result.Summary, "1 sous-tâche(s) créée(s)")
	assert.Contains(t, result.BoardComment, "Sous-tâches créées")
	assert.Contains(t, result.BoardComment, "https://trello.com/c/card1")
}

// A card already at the depth ceiling must never see the delegation grammar,
// and any delegation blocks the model emits anyway are ignored.
func TestAgentExecuteDepthCeiling(t *testing.T) {
	t.Parallel()

	response := structuredResponse +
		delegationBlock("content", "Encore une sous-tâche", "Description", "")

	cards := &fakeCardMaker{}
	completer := &fakeCompleter{response: response}
	agent := New(seoDefinition(t), completer, WithCardMaker(cards), WithMaxDelegationDepth(2))

	task := executableTask()
	task.Context = map[string]string{"delegation_depth": "2"}

	result, err := agent.Execute(context.Background(), task)
	require.NoError(t, err)

	assert.Empty(t, cards.requests)
	assert.NotContains(t, completer.userPrompts[0], SectionDelegate)
	assert.NotContains(t, result.Summary, "sous-tâche")
}

func TestAgentExecuteDelegationFailureIsFatal(t *testing.T) {
	t.Parallel()

	response := structuredResponse +
		delegationBlock("content", "Première", "Desc", "") +
		delegationBlock("social", "Deuxième", "Desc", "")

	cards := &fakeCardMaker{failAt: 2}
	completer := &fakeCompleter{response: response}
	agent := New(seoDefinition(t), completer, WithCardMaker(cards))

	_, err := agent.Execute(context.Background(), executableTask())
	require.Error(t, err)
	assert.True(t, errors.Is(err, drovererrors.ErrDelegationFailed))
}

// A zero cap disables delegation entirely: no grammar in the prompt, no
// cards created even when the model emits blocks.
func TestAgentExecuteZeroDelegationCap(t *testing.T) {
	t.Parallel()

	response := structuredResponse + delegationBlock("content", "Titre", "Desc", "")

	cards := &fakeCardMaker{}
	completer := &fakeCompleter{response: response}
	agent := New(seoDefinition(t), completer, WithCardMaker(cards), WithMaxDelegations(0))

	result, err := agent.Execute(context.Background(), executableTask())
	require.NoError(t, err)
	assert.Empty(t, cards.requests)
	assert.NotContains(t, completer.userPrompts[0], SectionDelegate)
	assert.NotContains(t, result.Summary, "sous-tâche")
}

// A cap above the default must be honored, not clamped back down.
func TestAgentExecuteRaisedDelegationCap(t *testing.T) {
	t.Parallel()

	response := structuredResponse
	for i := 0; i < 7; i++ {
		response += delegationBlock("content", fmt.Sprintf("Tâche %d", i), "Desc", "")
	}

	cards := &fakeCardMaker{}
	completer := &fakeCompleter{response: response}
	agent := New(seoDefinition(t), completer, WithCardMaker(cards), WithMaxDelegations(7))

	_, err := agent.Execute(context.Background(), executableTask())
	require.NoError(t, err)
	assert.Len(t, cards.requests, 7)
	assert.Contains(t, completer.userPrompts[0], "Maximum 7 sous-tâches")
}

func TestAgentExecuteWithoutCardMakerSkipsDelegation(t *testing.T) {
	t.Parallel()

	response := structuredResponse + delegationBlock("ads", "Campagne", "Desc", "")
	completer := &fakeCompleter{response: response}
	agent := New(seoDefinition(t), completer)

	result, err := agent.Execute(context.Background(), executableTask())
	require.NoError(t, err)
	assert.NotContains(t, completer.userPrompts[0], SectionDelegate)
	assert.NotContains(t, result.Summary, "sous-tâche")
}

func TestAgentExecuteAnalyticsDegradesGracefully(t *testing.T) {
	t.Parallel()

	reg, err := LoadRegistry()
	require.NoError(t, err)
	def, err := reg.ForDomain(domain.DomainAnalytics)
	require.NoError(t, err)

	completer := &fakeCompleter{response: structuredResponse}
	source := &fakeAnalytics{err: errors.New("analytics authentication failed")}
	agent := New(def, completer, WithAnalytics(source))

	task := executableTask()
	task.Domain = domain.DomainAnalytics

	_, err = agent.Execute(context.Background(), task)
	require.NoError(t, err)
	assert.NotContains(t, completer.userPrompts[0], "Données Analytics")
}

func TestAgentExecuteIncludesAnalyticsContext(t *testing.T) {
	t.Parallel()

	reg, err := LoadRegistry()
	require.NoError(t, err)
	def, err := reg.ForDomain(domain.DomainAnalytics)
	require.NoError(t, err)

	summary := &analytics.Summary{
		Stats: analytics.Stats{
			Pageviews: analytics.MetricValue{Value: 1200, Prev: 1000},
		},
	}
	completer := &fakeCompleter{response: structuredResponse}
	agent := New(def, completer, WithAnalytics(&fakeAnalytics{summary: summary}))

	task := executableTask()
	task.Domain = domain.DomainAnalytics
	task.Title = "Rapport de trafic sur 7 jours"

	_, err = agent.Execute(context.Background(), task)
	require.NoError(t, err)

	prompt := completer.userPrompts[0]
	assert.Contains(t, prompt, "Données Analytics")
	assert.Contains(t, prompt, "(7 jours)")
	assert.Contains(t, prompt, "Visiteurs actifs en ce moment : 4")
}

func TestTaskDepth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		context map[string]string
		want    int
	}{
		{name: "no context", context: nil, want: 0},
		{name: "depth one", context: map[string]string{"delegation_depth": "1"}, want: 1},
		{name: "padded", context: map[string]string{"delegation_depth": " 2 "}, want: 2},
		{name: "garbage", context: map[string]string{"delegation_depth": "beaucoup"}, want: 0},
		{name: "negative", context: map[string]string{"delegation_depth": "-3"}, want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, taskDepth(domain.Task{Context: tt.context}))
		})
	}
}

func TestDeliverableLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		typ  domain.DeliverableType
		want string
	}{
		{domain.DeliverableDocument, "deliverables/docs/audit-seo.md"},
		{domain.DeliverablePullRequest, "feature/audit-seo"},
		{domain.DeliverableReviewRequest, "review/audit-seo"},
		{domain.DeliverableReport, "deliverables/reports/audit-seo.md"},
		{domain.DeliverableCampaignConfig, "deliverables/campaigns/audit-seo.json"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.typ), func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, deliverableLocation(tt.typ, "audit-seo"))
		})
	}
}
