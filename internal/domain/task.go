package domain

import "time"

// Task is the normalized unit of work parsed from a board card.
// A fresh Task is reparsed from its card on every poll cycle, so instances are
// never mutated after creation and long-lived references cannot go stale.
//
// Example JSON representation:
//
//	{
//	    "id": "task_64f1c2ab",
//	    "title": "Audit SEO",
//	    "description": "...",
//	    "domain": "seo",
//	    "stage": "todo",
//	    "priority": "medium",
//	    "card_id": "64f1c2ab",
//	    "card_url": "https://trello.com/c/64f1c2ab",
//	    "deliverable_type": "document"
//	}
type Task struct {
	// ID is the internal task identifier, derived from the origin card ID.
	ID string `json:"id"`

	// Title is the card name.
	Title string `json:"title"`

	// Description is the card's free-text description.
	Description string `json:"description"`

	// Domain determines which agent handles this task.
	Domain Domain `json:"domain"`

	// Stage is the workflow position at parse time.
	Stage Stage `json:"stage"`

	// Priority orders candidate tasks within a poll cycle.
	Priority Priority `json:"priority"`

	// CardID is the origin board card identifier.
	CardID string `json:"card_id"`

	// CardURL links back to the origin card.
	CardURL string `json:"card_url"`

	// Due is the card's due timestamp (nil if none).
	Due *time.Time `json:"due,omitempty"`

	// Context holds **Key**: Value pairs extracted from the description.
	Context map[string]string `json:"context,omitempty"`

	// DeliverableType is the expected artifact kind.
	DeliverableType DeliverableType `json:"deliverable_type"`
}

// ResultStatus is the outcome category of an agent execution.
type ResultStatus string

// Execution outcomes.
const (
	StatusSuccess     ResultStatus = "success"
	StatusNeedsReview ResultStatus = "needs_review"
	StatusFailed      ResultStatus = "failed"
)

// AgentResult is the output of executing a Task.
type AgentResult struct {
	// TaskID identifies the executed task.
	TaskID string `json:"task_id"`

	// Domain is the executing agent's domain.
	Domain Domain `json:"domain"`

	// Status is success unless the task's deliverable type requests review.
	Status ResultStatus `json:"status"`

	// Deliverable is the structured artifact produced for the task.
	Deliverable Deliverable `json:"deliverable"`

	// Summary is a short human-readable recap, including any delegation note.
	Summary string `json:"summary"`

	// NextSteps lists recommended follow-ups, seeded as a card checklist.
	NextSteps []string `json:"next_steps,omitempty"`

	// BoardComment is the rendered comment to post back on the origin card.
	BoardComment string `json:"board_comment"`
}
