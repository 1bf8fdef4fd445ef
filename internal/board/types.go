// Package board adapts an external kanban board API into drover's task model.
// It translates opaque board cards into normalized tasks and applies task
// state transitions (list moves, comments, checklists, card creation) back to
// the board.
package board

import "time"

// Card is one item on the board, as returned by the board API.
type Card struct {
	ID     string     `json:"id"`
	Name   string     `json:"name"`
	Desc   string     `json:"desc"`
	ListID string     `json:"idList"`
	Labels []Label    `json:"labels"`
	Due    *time.Time `json:"due"`
	URL    string     `json:"url"`
}

// Label is a colored tag attached to a card. Label names drive domain and
// priority detection.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// List is one column on the board. List names map to workflow stages.
type List struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CreateCardOptions carries the optional fields of a card creation.
type CreateCardOptions struct {
	LabelIDs []string
	Due      *time.Time
}
