// Package constants provides centralized constant values used throughout drover.
// This package is the single source of truth for all shared constants and MUST NOT
// import any other internal packages.
package constants

import "time"

// Directory names and paths used by drover for organizing data.
const (
	// DroverHome is the hidden directory name where drover stores its data.
	// This directory is created in the user's home directory.
	DroverHome = ".drover"

	// LogsDir is the directory name where log files are stored.
	LogsDir = "logs"

	// DefaultOutputDir is the default root directory for locally written deliverables.
	DefaultOutputDir = "./output"
)

// Log file settings.
const (
	// CLILogFileName is the name of the global CLI log file.
	// This file is located in ~/.drover/logs/drover.log
	CLILogFileName = "drover.log"

	// LogMaxSizeMB is the maximum size in megabytes before a log file is rotated.
	LogMaxSizeMB = 10

	// LogMaxBackups is the maximum number of rotated log files to retain.
	LogMaxBackups = 3

	// LogMaxAgeDays is the maximum number of days to retain rotated log files.
	LogMaxAgeDays = 30

	// LogCompress controls gzip compression of rotated log files.
	LogCompress = true
)

// Timeout configurations for various operations.
const (
	// DefaultRequestTimeout is the default maximum duration for a single HTTP call.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultCompletionTimeout is the default maximum duration for a completion
	// API call. Model latency can run to tens of seconds, so this is deliberately
	// much longer than DefaultRequestTimeout.
	DefaultCompletionTimeout = 2 * time.Minute

	// DefaultPollInterval is the interval at which the orchestrator polls the board.
	DefaultPollInterval = 60 * time.Second
)

// Orchestration limits.
const (
	// DefaultMaxConcurrent is the default ceiling on simultaneously running tasks.
	DefaultMaxConcurrent = 3

	// DefaultProcessedHistory bounds the set of already-processed card IDs kept
	// for idempotence. Eviction is FIFO once the capacity is exceeded.
	DefaultProcessedHistory = 500

	// MaxDelegationsPerTask caps how many sub-task cards a single agent
	// execution may create.
	MaxDelegationsPerTask = 5

	// MaxDelegationDepth caps how many generations of delegated cards may
	// themselves delegate. Cards at or beyond this depth get their delegation
	// instructions withheld.
	MaxDelegationDepth = 2

	// MaxDelegationTitleLen caps delegated card titles.
	MaxDelegationTitleLen = 200

	// MaxDelegationDescLen caps delegated card descriptions.
	MaxDelegationDescLen = 2000
)

// Completion API defaults.
const (
	// DefaultModel is the completion model used when none is configured.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxOutputTokens bounds the completion response length.
	DefaultMaxOutputTokens = 8192

	// DefaultBurstSize is the completion rate limiter burst capacity.
	DefaultBurstSize = 5

	// DefaultRefillPerSec is the completion rate limiter refill rate.
	DefaultRefillPerSec = 2.0
)

// Retry configuration defaults for recoverable operations.
const (
	// MaxRetryAttempts is the maximum number of retry attempts for recoverable errors.
	MaxRetryAttempts = 3

	// InitialBackoff is the initial backoff duration before the first retry.
	// Subsequent retries use exponential backoff based on this value.
	InitialBackoff = 1 * time.Second

	// BackoffMultiplier is the factor applied to the backoff after each attempt.
	BackoffMultiplier = 2
)

// Diagnostics limits.
const (
	// MaxErrorBodyBytes bounds how much of an upstream response body is copied
	// into an error message.
	MaxErrorBodyBytes = 500

	// MaxCommentErrorLen bounds how much of an error message is posted back to
	// a board card as a diagnostic comment.
	MaxCommentErrorLen = 500
)
