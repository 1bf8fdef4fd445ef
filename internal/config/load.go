package config

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/droverhq/drover/internal/constants"
	"github.com/droverhq/drover/internal/errors"
)

// newViperInstance creates a new Viper instance with standard drover
// configuration: defaults, the DROVER_ env prefix, and a key replacer so
// board.board_id maps to DROVER_BOARD_BOARD_ID.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("DROVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError reports whether err is viper's missing-file error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence:
// environment variables over project config over global config over defaults.
// Missing config files are expected and skipped silently.
func Load() (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}
	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	return unmarshalAndValidate(v)
}

// LoadFromPaths loads configuration from specific file paths for testing.
// Either path can be empty to skip that level.
func LoadFromPaths(projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}
	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, ok := getGlobalConfigPathIfExists()
	if !ok {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	// Board defaults
	v.SetDefault("board.api_key_env_var", "TRELLO_API_KEY")
	v.SetDefault("board.token_env_var", "TRELLO_TOKEN")
	v.SetDefault("board.board_id", "")
	v.SetDefault("board.failure_stage", "todo")

	// Completion defaults
	v.SetDefault("completion.api_key_env_var", "ANTHROPIC_API_KEY")
	v.SetDefault("completion.model", constants.DefaultModel)
	v.SetDefault("completion.max_tokens", constants.DefaultMaxOutputTokens)
	v.SetDefault("completion.timeout", constants.DefaultCompletionTimeout)
	v.SetDefault("completion.burst_size", constants.DefaultBurstSize)
	v.SetDefault("completion.refill_per_sec", constants.DefaultRefillPerSec)

	// Analytics defaults
	v.SetDefault("analytics.enabled", false)
	v.SetDefault("analytics.base_url", "")
	v.SetDefault("analytics.website_id", "")
	v.SetDefault("analytics.username", "")
	v.SetDefault("analytics.password_env_var", "UMAMI_PASSWORD")
	v.SetDefault("analytics.timezone", "Europe/Paris")
	v.SetDefault("analytics.ga4_property_id", "")
	v.SetDefault("analytics.search_console_site_url", "")
	v.SetDefault("analytics.google_key_file", "")
	v.SetDefault("analytics.google_client_email_env_var", "GOOGLE_CLIENT_EMAIL")
	v.SetDefault("analytics.google_private_key_env_var", "GOOGLE_PRIVATE_KEY")

	// GitHub defaults
	v.SetDefault("github.token_env_var", "GITHUB_TOKEN")
	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")

	// Orchestrator defaults
	v.SetDefault("orchestrator.max_concurrent", constants.DefaultMaxConcurrent)
	v.SetDefault("orchestrator.poll_interval", constants.DefaultPollInterval)
	v.SetDefault("orchestrator.processed_history", constants.DefaultProcessedHistory)
	v.SetDefault("orchestrator.max_delegations", constants.MaxDelegationsPerTask)
	v.SetDefault("orchestrator.max_delegation_depth", constants.MaxDelegationDepth)

	// Output defaults
	v.SetDefault("output.dir", constants.DefaultOutputDir)
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
