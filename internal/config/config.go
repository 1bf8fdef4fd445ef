// Package config provides configuration management for drover with layered
// precedence.
//
// Configuration sources are loaded in the following order (highest precedence
// first):
//  1. Environment variables (DROVER_* prefix)
//  2. Project config (.drover/config.yaml)
//  3. Global config (~/.drover/config.yaml)
//  4. Built-in defaults
//
// Credentials are never read from config files. Config files name the
// environment variable holding a secret; the secret itself comes from the
// process environment at startup.
//
// IMPORTANT: This package may import internal/constants and internal/errors,
// but MUST NOT import internal/domain or other internal packages.
package config

import (
	"os"
	"time"

	"github.com/droverhq/drover/internal/errors"
)

// Config is the root configuration structure for drover.
type Config struct {
	// Board contains settings for the kanban board connection.
	Board BoardConfig `yaml:"board" mapstructure:"board"`

	// Completion contains settings for the model completion API.
	Completion CompletionConfig `yaml:"completion" mapstructure:"completion"`

	// Analytics contains settings for the web analytics source.
	Analytics AnalyticsConfig `yaml:"analytics" mapstructure:"analytics"`

	// GitHub contains settings for pull request and review issue creation.
	GitHub GitHubConfig `yaml:"github" mapstructure:"github"`

	// Orchestrator contains settings for the poll-dispatch loop.
	Orchestrator OrchestratorConfig `yaml:"orchestrator" mapstructure:"orchestrator"`

	// Output contains settings for locally written deliverables.
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// BoardConfig contains settings for the board API connection.
type BoardConfig struct {
	// APIKeyEnvVar names the environment variable holding the board API key.
	// Default: "TRELLO_API_KEY"
	APIKeyEnvVar string `yaml:"api_key_env_var" mapstructure:"api_key_env_var"`

	// TokenEnvVar names the environment variable holding the board API token.
	// Default: "TRELLO_TOKEN"
	TokenEnvVar string `yaml:"token_env_var" mapstructure:"token_env_var"`

	// BoardID identifies the board to orchestrate. Required.
	BoardID string `yaml:"board_id" mapstructure:"board_id"`

	// FailureStage is the stage failed cards are moved back to.
	// Default: "todo"
	FailureStage string `yaml:"failure_stage" mapstructure:"failure_stage"`
}

// APIKey reads the board API key from the configured environment variable.
func (c *BoardConfig) APIKey() (string, error) {
	return readCredential(c.APIKeyEnvVar)
}

// Token reads the board API token from the configured environment variable.
func (c *BoardConfig) Token() (string, error) {
	return readCredential(c.TokenEnvVar)
}

// CompletionConfig contains settings for the completion API.
type CompletionConfig struct {
	// APIKeyEnvVar names the environment variable holding the API key.
	// Default: "ANTHROPIC_API_KEY"
	APIKeyEnvVar string `yaml:"api_key_env_var" mapstructure:"api_key_env_var"`

	// Model is the completion model identifier.
	Model string `yaml:"model" mapstructure:"model"`

	// MaxTokens bounds the completion response length.
	// Default: 8192
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`

	// Timeout is the maximum duration for a single completion call.
	// Default: 2m
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// BurstSize is the rate limiter burst capacity.
	// Default: 5
	BurstSize int `yaml:"burst_size" mapstructure:"burst_size"`

	// RefillPerSec is the rate limiter refill rate in tokens per second.
	// Default: 2
	RefillPerSec float64 `yaml:"refill_per_sec" mapstructure:"refill_per_sec"`
}

// APIKey reads the completion API key from the configured environment variable.
func (c *CompletionConfig) APIKey() (string, error) {
	return readCredential(c.APIKeyEnvVar)
}

// AnalyticsConfig contains settings for the analytics source.
type AnalyticsConfig struct {
	// Enabled turns on analytics context for analytics-domain tasks.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// BaseURL is the analytics API endpoint.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// WebsiteID identifies the tracked website.
	WebsiteID string `yaml:"website_id" mapstructure:"website_id"`

	// Username is the analytics account name.
	Username string `yaml:"username" mapstructure:"username"`

	// PasswordEnvVar names the environment variable holding the password.
	// Default: "UMAMI_PASSWORD"
	PasswordEnvVar string `yaml:"password_env_var" mapstructure:"password_env_var"`

	// Timezone is the reporting timezone for time series queries.
	// Default: "Europe/Paris"
	Timezone string `yaml:"timezone" mapstructure:"timezone"`

	// GA4PropertyID is the numeric Google Analytics 4 property. Empty
	// disables the GA4 source.
	GA4PropertyID string `yaml:"ga4_property_id" mapstructure:"ga4_property_id"`

	// SearchConsoleSiteURL is the site property registered in Google
	// Search Console. Empty disables the Search Console source.
	SearchConsoleSiteURL string `yaml:"search_console_site_url" mapstructure:"search_console_site_url"`

	// GoogleKeyFile is a path to a service-account JSON key with read
	// access to GA4 and Search Console. When empty, the inline credential
	// environment variables are used instead.
	GoogleKeyFile string `yaml:"google_key_file" mapstructure:"google_key_file"`

	// GoogleClientEmailEnvVar names the environment variable holding the
	// service-account client email. Default: "GOOGLE_CLIENT_EMAIL"
	GoogleClientEmailEnvVar string `yaml:"google_client_email_env_var" mapstructure:"google_client_email_env_var"`

	// GooglePrivateKeyEnvVar names the environment variable holding the
	// service-account private key. Default: "GOOGLE_PRIVATE_KEY"
	GooglePrivateKeyEnvVar string `yaml:"google_private_key_env_var" mapstructure:"google_private_key_env_var"`
}

// Password reads the analytics password from the configured environment variable.
func (c *AnalyticsConfig) Password() (string, error) {
	return readCredential(c.PasswordEnvVar)
}

// GoogleEnabled reports whether any Google reporting source is configured.
func (c *AnalyticsConfig) GoogleEnabled() bool {
	return c.GA4PropertyID != "" || c.SearchConsoleSiteURL != ""
}

// GoogleInlineCredentials reads the inline service-account credentials from
// the configured environment variables.
func (c *AnalyticsConfig) GoogleInlineCredentials() (email, privateKey string, err error) {
	email, err = readCredential(c.GoogleClientEmailEnvVar)
	if err != nil {
		return "", "", err
	}
	privateKey, err = readCredential(c.GooglePrivateKeyEnvVar)
	if err != nil {
		return "", "", err
	}
	return email, privateKey, nil
}

// GitHubConfig contains settings for GitHub-bound deliverables. When Owner or
// Repo is empty the GitHub paths degrade to local document writes.
type GitHubConfig struct {
	// TokenEnvVar names the environment variable holding the API token.
	// Default: "GITHUB_TOKEN"
	TokenEnvVar string `yaml:"token_env_var" mapstructure:"token_env_var"`

	// Owner is the repository owner.
	Owner string `yaml:"owner" mapstructure:"owner"`

	// Repo is the repository name.
	Repo string `yaml:"repo" mapstructure:"repo"`
}

// Enabled reports whether GitHub delivery is configured.
func (c *GitHubConfig) Enabled() bool {
	return c.Owner != "" && c.Repo != ""
}

// Token reads the GitHub token from the configured environment variable.
func (c *GitHubConfig) Token() (string, error) {
	return readCredential(c.TokenEnvVar)
}

// OrchestratorConfig contains settings for the poll-dispatch loop.
type OrchestratorConfig struct {
	// MaxConcurrent is the ceiling on simultaneously running tasks.
	// Default: 3
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`

	// PollInterval is the board polling cadence.
	// Default: 60s
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`

	// ProcessedHistory bounds the processed-card set kept for idempotence.
	// Default: 500
	ProcessedHistory int `yaml:"processed_history" mapstructure:"processed_history"`

	// MaxDelegations caps sub-task cards per agent execution.
	// Default: 5
	MaxDelegations int `yaml:"max_delegations" mapstructure:"max_delegations"`

	// MaxDelegationDepth caps delegation generations.
	// Default: 2
	MaxDelegationDepth int `yaml:"max_delegation_depth" mapstructure:"max_delegation_depth"`
}

// OutputConfig contains settings for locally written deliverables.
type OutputConfig struct {
	// Dir is the root directory for deliverable files.
	// Default: "./output"
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// readCredential reads a secret from the named environment variable.
func readCredential(envVar string) (string, error) {
	if envVar == "" {
		return "", errors.Wrap(errors.ErrMissingCredential, "no environment variable configured")
	}
	value := os.Getenv(envVar)
	if value == "" {
		return "", errors.Wrapf(errors.ErrMissingCredential, "environment variable %s is not set", envVar)
	}
	return value, nil
}
