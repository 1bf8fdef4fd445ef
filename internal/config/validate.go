package config

import (
	"time"

	"github.com/droverhq/drover/internal/errors"
)

// Stages a failed card may be moved back to. Moving to done or in_progress
// would either hide the failure or wedge the concurrency budget.
var validFailureStages = map[string]struct{}{ //nolint:gochecknoglobals // Fixed validation table
	"backlog": {},
	"todo":    {},
	"review":  {},
}

// Validate checks the configuration for invalid or inconsistent values.
// It returns an error describing the first validation failure found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.ErrConfigNil
	}

	if err := validateBoardConfig(&cfg.Board); err != nil {
		return err
	}
	if err := validateCompletionConfig(&cfg.Completion); err != nil {
		return err
	}
	if err := validateAnalyticsConfig(&cfg.Analytics); err != nil {
		return err
	}
	if err := validateGitHubConfig(&cfg.GitHub); err != nil {
		return err
	}
	if err := validateOrchestratorConfig(&cfg.Orchestrator); err != nil {
		return err
	}

	return nil
}

func validateBoardConfig(cfg *BoardConfig) error {
	if cfg.APIKeyEnvVar == "" {
		return errors.Wrap(errors.ErrConfigInvalidBoard, "board.api_key_env_var must not be empty")
	}
	if cfg.TokenEnvVar == "" {
		return errors.Wrap(errors.ErrConfigInvalidBoard, "board.token_env_var must not be empty")
	}
	if _, ok := validFailureStages[cfg.FailureStage]; !ok {
		return errors.Wrapf(errors.ErrConfigInvalidBoard,
			"board.failure_stage must be backlog, todo, or review, got %q", cfg.FailureStage)
	}
	return nil
}

func validateCompletionConfig(cfg *CompletionConfig) error {
	if cfg.APIKeyEnvVar == "" {
		return errors.Wrap(errors.ErrConfigInvalidCompletion, "completion.api_key_env_var must not be empty")
	}
	if cfg.Model == "" {
		return errors.Wrap(errors.ErrConfigInvalidCompletion, "completion.model must not be empty")
	}
	if cfg.MaxTokens < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidCompletion,
			"completion.max_tokens must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.Timeout <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidCompletion,
			"completion.timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.BurstSize < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidCompletion,
			"completion.burst_size must be positive, got %d", cfg.BurstSize)
	}
	if cfg.RefillPerSec <= 0 {
		return errors.Wrapf(errors.ErrConfigInvalidCompletion,
			"completion.refill_per_sec must be positive, got %g", cfg.RefillPerSec)
	}
	return nil
}

func validateAnalyticsConfig(cfg *AnalyticsConfig) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BaseURL == "" {
		return errors.Wrap(errors.ErrConfigInvalidAnalytics, "analytics.base_url required when analytics is enabled")
	}
	if cfg.WebsiteID == "" {
		return errors.Wrap(errors.ErrConfigInvalidAnalytics, "analytics.website_id required when analytics is enabled")
	}
	if cfg.Username == "" {
		return errors.Wrap(errors.ErrConfigInvalidAnalytics, "analytics.username required when analytics is enabled")
	}
	if cfg.PasswordEnvVar == "" {
		return errors.Wrap(errors.ErrConfigInvalidAnalytics, "analytics.password_env_var required when analytics is enabled")
	}
	return nil
}

func validateGitHubConfig(cfg *GitHubConfig) error {
	// Owner and repo are either both set or both empty.
	if (cfg.Owner == "") != (cfg.Repo == "") {
		return errors.Wrap(errors.ErrConfigInvalidGitHub, "github.owner and github.repo must be set together")
	}
	if cfg.Enabled() && cfg.TokenEnvVar == "" {
		return errors.Wrap(errors.ErrConfigInvalidGitHub, "github.token_env_var required when github is configured")
	}
	return nil
}

func validateOrchestratorConfig(cfg *OrchestratorConfig) error {
	if cfg.MaxConcurrent < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidOrchestrator,
			"orchestrator.max_concurrent must be positive, got %d", cfg.MaxConcurrent)
	}
	if cfg.PollInterval < time.Second {
		return errors.Wrapf(errors.ErrConfigInvalidOrchestrator,
			"orchestrator.poll_interval must be at least 1s, got %s", cfg.PollInterval)
	}
	if cfg.ProcessedHistory < 1 {
		return errors.Wrapf(errors.ErrConfigInvalidOrchestrator,
			"orchestrator.processed_history must be positive, got %d", cfg.ProcessedHistory)
	}
	if cfg.MaxDelegations < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidOrchestrator,
			"orchestrator.max_delegations must not be negative, got %d", cfg.MaxDelegations)
	}
	if cfg.MaxDelegationDepth < 0 {
		return errors.Wrapf(errors.ErrConfigInvalidOrchestrator,
			"orchestrator.max_delegation_depth must not be negative, got %d", cfg.MaxDelegationDepth)
	}
	return nil
}
