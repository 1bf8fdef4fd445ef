package agent

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/droverhq/drover/internal/domain"
)

const plannedResponse = `Voici la décomposition de l'objectif.

---TASK_START---
TARGET_DOMAIN: seo
TITLE: Recherche de mots-clés
DELIVERABLE_TYPE: report
INSTRUCTIONS:
Identifier 20 mots-clés à fort potentiel.
Prioriser par volume et difficulté.
CONTEXT_KEY_VALUES:
site: example.com
audience: PME
ACCEPTANCE_CRITERIA:
- 20 mots-clés identifiés
- Volumes de recherche inclus
---TASK_END---

---TASK_START---
TARGET_DOMAIN: content
TITLE: Calendrier éditorial
DELIVERABLE_TYPE: document
INSTRUCTIONS:
Planifier 8 articles sur un trimestre.
ACCEPTANCE_CRITERIA:
- 8 sujets datés
---TASK_END---
`

func testPlanner(t *testing.T, completer Completer) *Planner {
	t.Helper()
	reg, err := LoadRegistry()
	require.NoError(t, err)
	return NewPlanner(completer, reg, zerolog.Nop())
}

func TestPlannerGenerateFromObjective(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: plannedResponse}
	planner := testPlanner(t, completer)

	prompts, err := planner.GenerateFromObjective(context.Background(),
		"Améliorer le SEO et le contenu du blog", map[string]string{"site": "example.com"}, nil)
	require.NoError(t, err)
	require.Len(t, prompts, 2)

	first := prompts[0]
	assert.Equal(t, domain.DomainSEO, first.TargetDomain)
	assert.Equal(t, "Recherche de mots-clés", first.Title)
	assert.Equal(t, domain.DeliverableReport, first.ExpectedDeliverable)
	assert.Contains(t, first.Instructions, "20 mots-clés à fort potentiel")
	assert.Contains(t, first.Instructions, "Prioriser par volume")
	assert.Equal(t, map[string]string{"site": "example.com", "audience": "PME"}, first.Context)
	assert.Equal(t, []string{"20 mots-clés identifiés", "Volumes de recherche inclus"}, first.AcceptanceCriteria)

	second := prompts[1]
	assert.Equal(t, domain.DomainContent, second.TargetDomain)
	assert.Nil(t, second.Context)

	// The meta prompt should enumerate only the detected agents.
	meta := completer.userPrompts[0]
	assert.Contains(t, meta, "Améliorer le SEO et le contenu du blog")
	assert.Contains(t, meta, "(seo)")
	assert.Contains(t, meta, "(content)")
	assert.NotContains(t, meta, "(email)")
}

func TestPlannerGenerateFromObjectiveExplicitTargets(t *testing.T) {
	t.Parallel()

	completer := &fakeCompleter{response: plannedResponse}
	planner := testPlanner(t, completer)

	_, err := planner.GenerateFromObjective(context.Background(), "Objectif neutre", nil,
		[]domain.Domain{domain.DomainAds})
	require.NoError(t, err)

	assert.Contains(t, completer.userPrompts[0], "(ads)")
	assert.NotContains(t, completer.userPrompts[0], "(seo)")
}

func TestPlannerGenerateFromObjectiveSkipsBadBlocks(t *testing.T) {
	t.Parallel()

	response := `---TASK_START---
TARGET_DOMAIN: finance
TITLE: Hors périmètre
---TASK_END---

---TASK_START---
TARGET_DOMAIN: seo
TITLE: Tâche valide
DELIVERABLE_TYPE: nonsense
---TASK_END---
`
	planner := testPlanner(t, &fakeCompleter{response: response})

	prompts, err := planner.GenerateFromObjective(context.Background(), "seo", nil, nil)
	require.NoError(t, err)
	require.Len(t, prompts, 1)
	assert.Equal(t, "Tâche valide", prompts[0].Title)
	assert.Equal(t, domain.DeliverableDocument, prompts[0].ExpectedDeliverable, "unknown type falls back to document")
}

func TestPlannerGenerateFromObjectiveNoBlocks(t *testing.T) {
	t.Parallel()

	planner := testPlanner(t, &fakeCompleter{response: "Je ne peux pas décomposer cet objectif."})

	_, err := planner.GenerateFromObjective(context.Background(), "objectif", nil, nil)
	require.Error(t, err)
}

func TestPlannerGenerateForAgent(t *testing.T) {
	t.Parallel()

	response := `TITLE: Campagne de nurturing
DELIVERABLE_TYPE: document
INSTRUCTIONS:
Concevoir une séquence de 5 emails.
ACCEPTANCE_CRITERIA:
- 5 emails rédigés
- CTA par email
`
	planner := testPlanner(t, &fakeCompleter{response: response})

	prompt, err := planner.GenerateForAgent(context.Background(), domain.DomainEmail,
		"Lancer une séquence de nurturing", nil)
	require.NoError(t, err)

	assert.Equal(t, domain.DomainEmail, prompt.TargetDomain)
	assert.Equal(t, "Campagne de nurturing", prompt.Title)
	assert.Contains(t, prompt.Instructions, "séquence de 5 emails")
	assert.Equal(t, []string{"5 emails rédigés", "CTA par email"}, prompt.AcceptanceCriteria)
}

func TestPlannerGenerateForAgentFallbacks(t *testing.T) {
	t.Parallel()

	planner := testPlanner(t, &fakeCompleter{response: "Réponse sans structure."})

	prompt, err := planner.GenerateForAgent(context.Background(), domain.DomainBrand, "objectif", nil)
	require.NoError(t, err)
	assert.Equal(t, "Tâche générée", prompt.Title)
	assert.Equal(t, "Réponse sans structure.", prompt.Instructions)
}

func TestPlannerGenerateForAgentUnknownDomain(t *testing.T) {
	t.Parallel()

	planner := testPlanner(t, &fakeCompleter{})

	_, err := planner.GenerateForAgent(context.Background(), domain.Domain("finance"), "objectif", nil)
	require.Error(t, err)
}

func TestDetectRelevantDomains(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		objective string
		want      []domain.Domain
	}{
		{
			name:      "single domain",
			objective: "Améliorer le référencement du site",
			want:      []domain.Domain{domain.DomainSEO},
		},
		{
			name:      "multiple domains in declaration order",
			objective: "Lancer une newsletter et des posts LinkedIn",
			want:      []domain.Domain{domain.DomainSocial, domain.DomainEmail},
		},
		{
			name:      "no match routes to strategy",
			objective: "Préparer la réunion de lundi",
			want:      []domain.Domain{domain.DomainStrategy},
		},
		{
			name:      "english keywords",
			objective: "Review our paid campaigns and tracking KPIs",
			want:      []domain.Domain{domain.DomainAds, domain.DomainAnalytics},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectRelevantDomains(tt.objective))
		})
	}
}
