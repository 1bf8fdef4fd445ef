package domain

// Deliverable is the structured artifact produced for a task.
//
// Ownership: created by the agent and handed to the deliverable producer,
// which is the only component that interprets Location as a filesystem or VCS
// path. The producer MUST re-derive or re-validate any path-like field rather
// than trust it as already safe; Location is never used verbatim from model
// output.
type Deliverable struct {
	// Type selects the producer path (file write, PR, issue, config write).
	Type DeliverableType `json:"type"`

	// Title is the deliverable heading, extracted from the model response or
	// falling back to the task title.
	Title string `json:"title"`

	// Content is the full deliverable body.
	Content string `json:"content"`

	// Location is a type-dependent target: a relative file path, a branch
	// name, or a review destination. Always slug-derived, never raw title.
	Location string `json:"location"`

	// Metadata records provenance: producing agent, domain, task id, and
	// generation timestamp (RFC3339).
	Metadata DeliverableMetadata `json:"metadata"`
}

// DeliverableMetadata records which agent produced a deliverable and when.
type DeliverableMetadata struct {
	Agent       string `json:"agent"`
	Domain      Domain `json:"domain"`
	TaskID      string `json:"task_id"`
	GeneratedAt string `json:"generated_at"`
}
