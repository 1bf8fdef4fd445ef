package board

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
)

// checklistName is the checklist created for validation criteria on new cards.
const checklistName = "Critères de validation"

// CardCreator turns creation requests and planner output into board cards.
// It bridges agent delegation back onto the board.
type CardCreator struct {
	client      *Client
	labelColors map[domain.Domain]string
	logger      zerolog.Logger
}

// NewCardCreator builds a creator over an initialized client. labelColors
// maps each domain to the label color its agent is configured with, used as a
// fallback when the board has no label named after the domain itself.
func NewCardCreator(client *Client, labelColors map[domain.Domain]string, logger zerolog.Logger) *CardCreator {
	return &CardCreator{
		client:      client,
		labelColors: labelColors,
		logger:      logger.With().Str("component", "card_creator").Logger(),
	}
}

// CreateFromRequest creates one card from a direct request: resolves domain
// and priority labels, creates the card, seeds the validation checklist, and
// cross-links parent and child with comments.
func (cc *CardCreator) CreateFromRequest(ctx context.Context, req domain.CardCreationRequest) (*domain.CardCreationResult, error) {
	var labelIDs []string
	if id := cc.findDomainLabel(req.TargetDomain); id != "" {
		labelIDs = append(labelIDs, id)
	}
	if id := cc.client.FindLabelID(string(req.Priority)); id != "" {
		labelIDs = append(labelIDs, id)
	}

	card, err := cc.client.CreateCard(ctx, req.Stage, req.Title, req.Description, CreateCardOptions{
		LabelIDs: labelIDs,
		Due:      req.Due,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "creating card %q", req.Title)
	}

	if len(req.Checklist) > 0 {
		if err := cc.client.AddChecklist(ctx, card.ID, checklistName, req.Checklist); err != nil {
			return nil, errors.Wrap(err, "seeding validation checklist")
		}
	}

	if req.ParentCardID != "" {
		parentNote := fmt.Sprintf("➡️ Sous-tâche créée : **%s**\nCarte : %s\nAgent cible : %s",
			req.Title, card.URL, req.TargetDomain)
		if err := cc.client.AddComment(ctx, req.ParentCardID, parentNote); err != nil {
			return nil, errors.Wrap(err, "linking parent card")
		}
		childNote := "⬆️ Carte parente : https://trello.com/c/" + req.ParentCardID
		if err := cc.client.AddComment(ctx, card.ID, childNote); err != nil {
			return nil, errors.Wrap(err, "linking child card")
		}
	}

	cc.logger.Info().
		Str("card_id", card.ID).
		Str("title", req.Title).
		Str("domain", string(req.TargetDomain)).
		Str("stage", string(req.Stage)).
		Msg("card created")

	return &domain.CardCreationResult{
		CardID:       card.ID,
		CardURL:      card.URL,
		Title:        req.Title,
		TargetDomain: req.TargetDomain,
	}, nil
}

// CreateFromPrompts creates one review-stage card per generated prompt so an
// operator vets planner output before agents pick it up. parentCardID may be
// empty. Stops at the first failure.
func (cc *CardCreator) CreateFromPrompts(ctx context.Context, prompts []domain.GeneratedPrompt, parentCardID string) ([]domain.CardCreationResult, error) {
	results := make([]domain.CardCreationResult, 0, len(prompts))
	for _, prompt := range prompts {
		result, err := cc.CreateFromRequest(ctx, domain.CardCreationRequest{
			Title:        prompt.Title,
			Description:  formatPromptDescription(prompt),
			Stage:        domain.StageReview,
			TargetDomain: prompt.TargetDomain,
			Priority:     domain.PriorityMedium,
			Checklist:    prompt.AcceptanceCriteria,
			ParentCardID: parentCardID,
		})
		if err != nil {
			return results, err
		}
		results = append(results, *result)
	}
	return results, nil
}

// findDomainLabel resolves a domain's label by name first, then by the
// agent's configured color. Returns "" when neither matches.
func (cc *CardCreator) findDomainLabel(d domain.Domain) string {
	if id := cc.client.FindLabelID(string(d)); id != "" {
		return id
	}
	if color, ok := cc.labelColors[d]; ok {
		return cc.client.FindLabelID(color)
	}
	return ""
}

// formatPromptDescription renders a generated prompt as a card body.
func formatPromptDescription(prompt domain.GeneratedPrompt) string {
	var b strings.Builder
	b.WriteString("## Instructions\n\n")
	b.WriteString(prompt.Instructions)
	b.WriteString("\n\n")

	if len(prompt.Context) > 0 {
		keys := make([]string, 0, len(prompt.Context))
		for k := range prompt.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString("## Contexte\n")
		for _, k := range keys {
			fmt.Fprintf(&b, "**%s**: %s\n", k, prompt.Context[k])
		}
		b.WriteString("\n")
	}

	b.WriteString("## Type de livrable attendu\n")
	b.WriteString(string(prompt.ExpectedDeliverable))
	b.WriteString("\n\n## Critères d'acceptation\n")
	for _, criterion := range prompt.AcceptanceCriteria {
		b.WriteString("- [ ] ")
		b.WriteString(criterion)
		b.WriteString("\n")
	}

	b.WriteString("\n---\n*Carte générée automatiquement par le système d'agents IA*")
	return b.String()
}
