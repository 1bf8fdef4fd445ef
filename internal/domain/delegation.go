package domain

import "time"

// CardCreationRequest is a self-referential mini-task: a request, parsed from
// a completed task's own output or issued directly by an operator, to create a
// new downstream card. Each accepted request becomes exactly one new Task on
// the next poll cycle, closing the delegation loop.
type CardCreationRequest struct {
	// Title is the new card name, capped defensively when model-generated.
	Title string `json:"title"`

	// Description is the new card body, capped defensively when model-generated.
	Description string `json:"description"`

	// Stage is the list the card is created in (normally todo).
	Stage Stage `json:"stage"`

	// TargetDomain routes the new card to a specific agent.
	TargetDomain Domain `json:"target_domain"`

	// Priority of the new card. Defaults to medium when absent.
	Priority Priority `json:"priority"`

	// Due is an optional due date for the new card.
	Due *time.Time `json:"due,omitempty"`

	// Checklist optionally seeds validation criteria on the new card.
	Checklist []string `json:"checklist,omitempty"`

	// ParentCardID back-references the originating card, when delegated.
	ParentCardID string `json:"parent_card_id,omitempty"`

	// Depth counts delegation generations from an operator-created card.
	// Cards at or beyond the configured ceiling may not delegate further.
	Depth int `json:"depth,omitempty"`
}

// CardCreationResult describes a card created for a delegation.
type CardCreationResult struct {
	CardID       string `json:"card_id"`
	CardURL      string `json:"card_url"`
	Title        string `json:"title"`
	TargetDomain Domain `json:"target_domain"`
}

// GeneratedPrompt is one task the planner carved out of a free-form objective.
// Each prompt becomes a review-stage card for an operator to vet before agents
// pick it up.
type GeneratedPrompt struct {
	Title               string            `json:"title"`
	TargetDomain        Domain            `json:"target_domain"`
	Instructions        string            `json:"instructions"`
	Context             map[string]string `json:"context,omitempty"`
	ExpectedDeliverable DeliverableType   `json:"expected_deliverable"`
	AcceptanceCriteria  []string          `json:"acceptance_criteria,omitempty"`
}
