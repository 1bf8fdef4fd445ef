package config

import (
	"github.com/droverhq/drover/internal/constants"
)

// DefaultConfig returns a new Config with sensible default values.
// These defaults are used as the base layer that can be overridden by
// config files and environment variables.
func DefaultConfig() *Config {
	return &Config{
		Board: BoardConfig{
			// Credentials stay out of config files. Only the env var names
			// are configurable.
			APIKeyEnvVar: "TRELLO_API_KEY",
			TokenEnvVar:  "TRELLO_TOKEN",

			// FailureStage: "todo" sends failed cards back for retriage
			// instead of leaving them stuck in progress.
			FailureStage: "todo",
		},
		Completion: CompletionConfig{
			APIKeyEnvVar: "ANTHROPIC_API_KEY",
			Model:        constants.DefaultModel,
			MaxTokens:    constants.DefaultMaxOutputTokens,
			Timeout:      constants.DefaultCompletionTimeout,
			BurstSize:    constants.DefaultBurstSize,
			RefillPerSec: constants.DefaultRefillPerSec,
		},
		Analytics: AnalyticsConfig{
			PasswordEnvVar:          "UMAMI_PASSWORD",
			Timezone:                "Europe/Paris",
			GoogleClientEmailEnvVar: "GOOGLE_CLIENT_EMAIL",
			GooglePrivateKeyEnvVar:  "GOOGLE_PRIVATE_KEY",
		},
		GitHub: GitHubConfig{
			TokenEnvVar: "GITHUB_TOKEN",
		},
		Orchestrator: OrchestratorConfig{
			MaxConcurrent:      constants.DefaultMaxConcurrent,
			PollInterval:       constants.DefaultPollInterval,
			ProcessedHistory:   constants.DefaultProcessedHistory,
			MaxDelegations:     constants.MaxDelegationsPerTask,
			MaxDelegationDepth: constants.MaxDelegationDepth,
		},
		Output: OutputConfig{
			Dir: constants.DefaultOutputDir,
		},
	}
}
