package board

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover/internal/domain"
)

func newTestCreator(t *testing.T) (*boardServer, *CardCreator) {
	t.Helper()

	bs, client := newBoardServer(t)
	require.NoError(t, client.Initialize(context.Background()))

	colors := map[domain.Domain]string{
		domain.DomainSEO:     "green",
		domain.DomainContent: "blue",
	}
	return bs, NewCardCreator(client, colors, zerolog.Nop())
}

func TestCreateFromRequest(t *testing.T) {
	t.Parallel()

	bs, creator := newTestCreator(t)

	result, err := creator.CreateFromRequest(context.Background(), domain.CardCreationRequest{
		Title:        "Optimiser les balises title",
		Description:  "Passer en revue toutes les pages",
		Stage:        domain.StageTodo,
		TargetDomain: domain.DomainSEO,
		Priority:     domain.PriorityUrgent,
		Checklist:    []string{"Balises uniques", "Moins de 60 caractères"},
	})
	require.NoError(t, err)
	assert.Equal(t, "new1", result.CardID)
	assert.Equal(t, "https://trello.com/c/new1", result.CardURL)
	assert.Equal(t, domain.DomainSEO, result.TargetDomain)

	creates := bs.recorded("POST /cards")
	require.Len(t, creates, 1)
	assert.Equal(t, "lab-seo,lab-urgent", creates[0]["idLabels"], "domain and priority labels resolved")

	checklists := bs.recorded("POST /cards/new1/checklists")
	require.Len(t, checklists, 1)
	assert.Equal(t, checklistName, checklists[0]["name"])
	assert.Len(t, bs.recorded("POST /checklists/chk1/checkItems"), 2)
}

func TestCreateFromRequestLinksParent(t *testing.T) {
	t.Parallel()

	bs, creator := newTestCreator(t)

	_, err := creator.CreateFromRequest(context.Background(), domain.CardCreationRequest{
		Title:        "Sous-tâche",
		Description:  "Détail",
		Stage:        domain.StageTodo,
		TargetDomain: domain.DomainContent,
		Priority:     domain.PriorityMedium,
		ParentCardID: "parent1",
	})
	require.NoError(t, err)

	parentComments := bs.recorded("POST /cards/parent1/actions/comments")
	require.Len(t, parentComments, 1)
	assert.Contains(t, parentComments[0]["text"], "Sous-tâche")
	assert.Contains(t, parentComments[0]["text"], "https://trello.com/c/new1")

	childComments := bs.recorded("POST /cards/new1/actions/comments")
	require.Len(t, childComments, 1)
	assert.Contains(t, childComments[0]["text"], "parent1")
}

func TestCreateFromRequestDomainLabelByColor(t *testing.T) {
	t.Parallel()

	bs, creator := newTestCreator(t)

	// Content has no label named after the domain; falls back to the
	// configured color.
	_, err := creator.CreateFromRequest(context.Background(), domain.CardCreationRequest{
		Title:        "Article de blog",
		Description:  "500 mots",
		Stage:        domain.StageTodo,
		TargetDomain: domain.DomainContent,
		Priority:     domain.PriorityMedium,
	})
	require.NoError(t, err)

	creates := bs.recorded("POST /cards")
	require.Len(t, creates, 1)
	assert.Equal(t, "lab-blue", creates[0]["idLabels"])
}

func TestCreateFromPrompts(t *testing.T) {
	t.Parallel()

	bs, creator := newTestCreator(t)

	prompts := []domain.GeneratedPrompt{
		{
			Title:               "Audit des mots-clés",
			TargetDomain:        domain.DomainSEO,
			Instructions:        "Lister les 20 mots-clés prioritaires",
			Context:             map[string]string{"site": "example.com", "audience": "PME"},
			ExpectedDeliverable: domain.DeliverableReport,
			AcceptanceCriteria:  []string{"20 mots-clés", "Volume de recherche inclus"},
		},
	}

	results, err := creator.CreateFromPrompts(context.Background(), prompts, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Audit des mots-clés", results[0].Title)

	creates := bs.recorded("POST /cards")
	require.Len(t, creates, 1)
	assert.Equal(t, "l-review", creates[0]["idList"], "planner output lands in review for vetting")

	desc, ok := creates[0]["desc"].(string)
	require.True(t, ok)
	assert.Contains(t, desc, "## Instructions")
	assert.Contains(t, desc, "**audience**: PME")
	assert.Contains(t, desc, "**site**: example.com")
	assert.Contains(t, desc, "- [ ] 20 mots-clés")
	assert.Contains(t, desc, string(domain.DeliverableReport))
}
