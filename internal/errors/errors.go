// Package errors provides centralized error handling for drover.
//
// This package defines sentinel errors used for programmatic error categorization
// throughout the application. All error types can be checked using errors.Is().
//
// IMPORTANT: This package MUST NOT import any other internal packages.
// Only standard library imports are allowed.
package errors

import "errors"

// Sentinel errors for error categorization.
// These allow callers to check error types with errors.Is().
// All errors use lowercase descriptions per Go conventions.
var (
	// ErrConfigNil indicates that a nil config was passed to validation.
	ErrConfigNil = errors.New("config is nil")

	// ErrConfigInvalidBoard indicates an invalid board configuration value.
	ErrConfigInvalidBoard = errors.New("invalid board configuration")

	// ErrConfigInvalidCompletion indicates an invalid completion API configuration value.
	ErrConfigInvalidCompletion = errors.New("invalid completion configuration")

	// ErrConfigInvalidOrchestrator indicates an invalid orchestrator configuration value.
	ErrConfigInvalidOrchestrator = errors.New("invalid orchestrator configuration")

	// ErrConfigInvalidAnalytics indicates an invalid analytics configuration value.
	ErrConfigInvalidAnalytics = errors.New("invalid analytics configuration")

	// ErrConfigInvalidGitHub indicates an invalid GitHub configuration value.
	ErrConfigInvalidGitHub = errors.New("invalid github configuration")

	// ErrMissingCredential indicates a required credential environment variable is unset.
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidDomain indicates a domain value outside the fixed enumeration.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidStage indicates a workflow stage outside the fixed enumeration.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrInvalidPriority indicates a priority value outside the fixed enumeration.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidDeliverableType indicates a deliverable type outside the fixed enumeration.
	ErrInvalidDeliverableType = errors.New("invalid deliverable type")

	// ErrRequestTimeout indicates an HTTP call exceeded its deadline.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrUpstreamStatus indicates a non-2xx response from an external API.
	ErrUpstreamStatus = errors.New("upstream returned non-success status")

	// ErrUnexpectedResponse indicates an upstream response was missing a required field.
	ErrUnexpectedResponse = errors.New("unexpected upstream response shape")

	// ErrPathTraversal indicates a resolved artifact path escaped its configured root.
	// Always fatal, never silently corrected.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrNullBytePath indicates a path contained a NUL byte.
	ErrNullBytePath = errors.New("null byte in path")

	// ErrStageNotMapped indicates no board list exists for a workflow stage.
	ErrStageNotMapped = errors.New("no board list mapped for stage")

	// ErrNoAgentForDomain indicates no agent is registered for a task's domain.
	ErrNoAgentForDomain = errors.New("no agent for domain")

	// ErrCardNotFound indicates the requested board card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrDelegationLimit indicates the per-execution delegation cap was exceeded.
	ErrDelegationLimit = errors.New("delegation limit reached")

	// ErrDelegationFailed indicates a delegated card could not be created.
	ErrDelegationFailed = errors.New("delegation card creation failed")

	// ErrEmptyCompletion indicates the completion API returned no text content.
	ErrEmptyCompletion = errors.New("completion returned no text content")

	// ErrAgentNotInitialized indicates an agent is missing a required collaborator.
	ErrAgentNotInitialized = errors.New("agent not fully initialized")

	// ErrAnalyticsAuth indicates analytics authentication failed.
	ErrAnalyticsAuth = errors.New("analytics authentication failed")

	// ErrInvalidOutputFormat indicates an invalid output format was specified.
	ErrInvalidOutputFormat = errors.New("invalid output format")

	// ErrInvalidFlagValue indicates a CLI flag value could not be parsed.
	ErrInvalidFlagValue = errors.New("invalid flag value")

	// ErrOrchestratorRunning indicates Start was called on an already-running orchestrator.
	ErrOrchestratorRunning = errors.New("orchestrator already running")

	// ErrMaxRetriesExceeded indicates the maximum retry attempts have been reached.
	ErrMaxRetriesExceeded = errors.New("maximum retry attempts exceeded")
)
