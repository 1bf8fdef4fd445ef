// Package domain provides shared domain types for the drover orchestration system.
// These types are used across all internal packages to ensure consistent data structures.
//
// This package follows strict import rules:
//   - CAN import: internal/constants, internal/errors, standard library
//   - MUST NOT import: any other internal packages
//
// All JSON field names use snake_case.
package domain

import (
	"strings"

	"github.com/droverhq/drover/internal/errors"
)

// Domain is the fixed category of work determining which agent handles a task.
type Domain string

// The eight agent domains. Any value outside this set is refused at dispatch.
const (
	DomainSEO       Domain = "seo"
	DomainContent   Domain = "content"
	DomainAds       Domain = "ads"
	DomainAnalytics Domain = "analytics"
	DomainSocial    Domain = "social"
	DomainEmail     Domain = "email"
	DomainBrand     Domain = "brand"
	DomainStrategy  Domain = "strategy"
)

// Domains lists every valid domain in declaration order.
// Returned as a fresh slice so callers cannot mutate the canonical set.
func Domains() []Domain {
	return []Domain{
		DomainSEO, DomainContent, DomainAds, DomainAnalytics,
		DomainSocial, DomainEmail, DomainBrand, DomainStrategy,
	}
}

// IsValidDomain reports whether value names a known domain.
// Use this on model-generated input where the failure policy is skip-and-log.
func IsValidDomain(value string) bool {
	switch Domain(value) {
	case DomainSEO, DomainContent, DomainAds, DomainAnalytics,
		DomainSocial, DomainEmail, DomainBrand, DomainStrategy:
		return true
	}
	return false
}

// ValidateDomain returns the domain for value, or an error naming the offending
// value and the allowed set. Use this on operator-supplied input where the
// failure policy is abort.
func ValidateDomain(value string) (Domain, error) {
	if IsValidDomain(value) {
		return Domain(value), nil
	}
	return "", errors.Wrapf(errors.ErrInvalidDomain,
		"%q is not one of [%s]", value, joinDomains())
}

func joinDomains() string {
	all := Domains()
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

// Stage is the workflow position of a task, mapped to a board list.
type Stage string

// Workflow stages in board order.
const (
	StageBacklog    Stage = "backlog"
	StageTodo       Stage = "todo"
	StageInProgress Stage = "in_progress"
	StageReview     Stage = "review"
	StageDone       Stage = "done"
)

// Stages lists every valid stage in workflow order.
func Stages() []Stage {
	return []Stage{StageBacklog, StageTodo, StageInProgress, StageReview, StageDone}
}

// IsValidStage reports whether value names a known workflow stage.
func IsValidStage(value string) bool {
	switch Stage(value) {
	case StageBacklog, StageTodo, StageInProgress, StageReview, StageDone:
		return true
	}
	return false
}

// ValidateStage returns the stage for value or a descriptive error.
func ValidateStage(value string) (Stage, error) {
	if IsValidStage(value) {
		return Stage(value), nil
	}
	return "", errors.Wrapf(errors.ErrInvalidStage,
		"%q is not one of [backlog, todo, in_progress, review, done]", value)
}

// Priority is the urgency of a task. Zero rank is most urgent.
type Priority string

// Priorities from least to most urgent.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns the sort rank of the priority: urgent=0, high=1, medium=2, low=3.
// Unknown priorities rank after low so they are never favored.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// IsValidPriority reports whether value names a known priority.
func IsValidPriority(value string) bool {
	switch Priority(value) {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ValidatePriority returns the priority for value or a descriptive error.
func ValidatePriority(value string) (Priority, error) {
	if IsValidPriority(value) {
		return Priority(value), nil
	}
	return "", errors.Wrapf(errors.ErrInvalidPriority,
		"%q is not one of [low, medium, high, urgent]", value)
}

// DeliverableType is the expected artifact kind for a task.
type DeliverableType string

// Deliverable kinds.
const (
	DeliverableDocument       DeliverableType = "document"
	DeliverablePullRequest    DeliverableType = "pull_request"
	DeliverableReviewRequest  DeliverableType = "review_request"
	DeliverableReport         DeliverableType = "report"
	DeliverableCampaignConfig DeliverableType = "campaign_config"
)

// IsValidDeliverableType reports whether value names a known deliverable type.
func IsValidDeliverableType(value string) bool {
	switch DeliverableType(value) {
	case DeliverableDocument, DeliverablePullRequest, DeliverableReviewRequest,
		DeliverableReport, DeliverableCampaignConfig:
		return true
	}
	return false
}

// ValidateDeliverableType returns the deliverable type for value or a descriptive error.
func ValidateDeliverableType(value string) (DeliverableType, error) {
	if IsValidDeliverableType(value) {
		return DeliverableType(value), nil
	}
	return "", errors.Wrapf(errors.ErrInvalidDeliverableType,
		"%q is not one of [document, pull_request, review_request, report, campaign_config]", value)
}
