package board

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover/internal/domain"
)

// fixedClock returns a constant time and sleeps instantly.
type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time { return f.now }

func (f fixedClock) Sleep(_ context.Context, _ time.Duration) error { return nil }

func newParserClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient("key", "token", "board1",
		WithClock(fixedClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}))
	c.lists = map[string]List{
		"l1": {ID: "l1", Name: "À faire"},
		"l2": {ID: "l2", Name: "En cours"},
		"l3": {ID: "l3", Name: "Mystery"},
	}
	return c
}

func TestListNameToStage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		listName  string
		wantStage domain.Stage
		wantOK    bool
	}{
		{name: "french todo", listName: "À faire", wantStage: domain.StageTodo, wantOK: true},
		{name: "english todo", listName: "To Do", wantStage: domain.StageTodo, wantOK: true},
		{name: "french in progress", listName: "En cours", wantStage: domain.StageInProgress, wantOK: true},
		{name: "review", listName: "Review", wantStage: domain.StageReview, wantOK: true},
		{name: "french review", listName: "À valider", wantStage: domain.StageReview, wantOK: true},
		{name: "french done", listName: "Terminé", wantStage: domain.StageDone, wantOK: true},
		{name: "backlog", listName: "Backlog", wantStage: domain.StageBacklog, wantOK: true},
		{name: "whitespace trimmed", listName: "  done  ", wantStage: domain.StageDone, wantOK: true},
		{name: "unknown list", listName: "Ideas", wantOK: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stage, ok := listNameToStage(tt.listName)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantStage, stage)
			}
		})
	}
}

func TestDetectDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		card Card
		want domain.Domain
	}{
		{
			name: "label match wins",
			card: Card{Name: "Improve ads copy", Labels: []Label{{Name: "SEO"}}},
			want: domain.DomainSEO,
		},
		{
			name: "french label",
			card: Card{Name: "Refonte", Labels: []Label{{Name: "Réseaux sociaux"}}},
			want: domain.DomainSocial,
		},
		{
			name: "keyword fallback in title",
			card: Card{Name: "Audit SEO du site"},
			want: domain.DomainSEO,
		},
		{
			name: "keyword fallback in description",
			card: Card{Name: "Lancement", Desc: "Préparer la campagne emailing"},
			want: domain.DomainEmail,
		},
		{
			name: "no signal defaults to strategy",
			card: Card{Name: "Plan Q3"},
			want: domain.DomainStrategy,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectDomain(tt.card))
		})
	}
}

func TestDetectStage(t *testing.T) {
	t.Parallel()

	c := newParserClient(t)

	assert.Equal(t, domain.StageTodo, c.detectStage("l1"))
	assert.Equal(t, domain.StageInProgress, c.detectStage("l2"))
	assert.Equal(t, domain.StageTodo, c.detectStage("l3"), "unmapped list name falls back to todo")
	assert.Equal(t, domain.StageTodo, c.detectStage("missing"), "unknown list ID falls back to todo")
}

func TestDetectPriority(t *testing.T) {
	t.Parallel()

	c := newParserClient(t)
	now := c.clk.Now()

	due := func(d time.Duration) *time.Time {
		ts := now.Add(d)
		return &ts
	}

	tests := []struct {
		name string
		card Card
		want domain.Priority
	}{
		{
			name: "urgent label",
			card: Card{Labels: []Label{{Name: "Urgent"}}},
			want: domain.PriorityUrgent,
		},
		{
			name: "french high label",
			card: Card{Labels: []Label{{Name: "Prioritaire"}}},
			want: domain.PriorityHigh,
		},
		{
			name: "low label",
			card: Card{Labels: []Label{{Name: "Low"}}},
			want: domain.PriorityLow,
		},
		{
			name: "due within a day",
			card: Card{Due: due(6 * time.Hour)},
			want: domain.PriorityUrgent,
		},
		{
			name: "due within three days",
			card: Card{Due: due(48 * time.Hour)},
			want: domain.PriorityHigh,
		},
		{
			name: "due far out",
			card: Card{Due: due(10 * 24 * time.Hour)},
			want: domain.PriorityMedium,
		},
		{
			name: "no signal",
			card: Card{},
			want: domain.PriorityMedium,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, c.detectPriority(tt.card))
		})
	}
}

func TestDetectDeliverableType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		card Card
		want domain.DeliverableType
	}{
		{name: "pull request", card: Card{Name: "Open a pull request for the fix"}, want: domain.DeliverablePullRequest},
		{name: "review", card: Card{Name: "Review landing page"}, want: domain.DeliverableReviewRequest},
		{name: "french report", card: Card{Name: "Rapport mensuel"}, want: domain.DeliverableReport},
		{name: "campaign", card: Card{Desc: "Configurer la campagne Google"}, want: domain.DeliverableCampaignConfig},
		{name: "default document", card: Card{Name: "Write a blog post"}, want: domain.DeliverableDocument},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, detectDeliverableType(tt.card))
		})
	}
}

func TestExtractContext(t *testing.T) {
	t.Parallel()

	desc := "Intro line\n**Audience**: PME françaises\n**Budget** : 5000€\nplain line"
	ctx := extractContext(desc)

	require.Len(t, ctx, 2)
	assert.Equal(t, "PME françaises", ctx["audience"])
	assert.Equal(t, "5000€", ctx["budget"])

	assert.Nil(t, extractContext("no markers here"))
}

func TestParseCard(t *testing.T) {
	t.Parallel()

	c := newParserClient(t)
	due := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	task := c.ParseCard(Card{
		ID:     "abc123",
		Name:   "Audit SEO complet",
		Desc:   "**Site**: example.com\nFaire un rapport détaillé",
		ListID: "l1",
		Labels: []Label{{Name: "SEO"}},
		Due:    &due,
		URL:    "https://trello.com/c/abc123",
	})

	assert.Equal(t, "task_abc123", task.ID)
	assert.Equal(t, "Audit SEO complet", task.Title)
	assert.Equal(t, domain.DomainSEO, task.Domain)
	assert.Equal(t, domain.StageTodo, task.Stage)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, "abc123", task.CardID)
	assert.Equal(t, "https://trello.com/c/abc123", task.CardURL)
	require.NotNil(t, task.Due)
	assert.Equal(t, due, *task.Due)
	assert.Equal(t, "example.com", task.Context["site"])
	assert.Equal(t, domain.DeliverableReport, task.DeliverableType)
	assert.True(t, domain.IsValidDomain(string(task.Domain)))
	assert.True(t, domain.IsValidStage(string(task.Stage)))
	assert.True(t, domain.IsValidPriority(string(task.Priority)))
}
