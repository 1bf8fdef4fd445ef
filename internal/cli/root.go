// Package cli provides the command-line interface for drover.
package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/droverhq/drover/internal/errors"
)

// BuildInfo contains version information set at build time via ldflags.
type BuildInfo struct {
	// Version is the semantic version (e.g., "1.0.0").
	Version string
	// Commit is the git commit hash.
	Commit string
	// Date is the build date.
	Date string
}

// globalLogger stores the initialized logger for use by subcommands.
// This is set during PersistentPreRunE and should be accessed via GetLogger.
// Access is protected by globalLoggerMu for thread safety.
var (
	globalLogger   zerolog.Logger //nolint:gochecknoglobals // CLI logger requires global access
	globalLoggerMu sync.RWMutex   //nolint:gochecknoglobals // Protects globalLogger
)

// globalConfigFile stores the --config override set during PersistentPreRunE.
var (
	globalConfigFile   string       //nolint:gochecknoglobals // Set once from the persistent flag
	globalConfigFileMu sync.RWMutex //nolint:gochecknoglobals // Protects globalConfigFile
)

// configOverride returns the --config flag value, empty when unset.
func configOverride() string {
	globalConfigFileMu.RLock()
	defer globalConfigFileMu.RUnlock()
	return globalConfigFile
}

// GetLogger returns the initialized logger for use by subcommands.
//
// IMPORTANT: This function MUST only be called after the root command's
// PersistentPreRunE has executed. Calling it before initialization will
// return a zero-value logger that discards all log output.
//
// This function is safe for concurrent use.
func GetLogger() zerolog.Logger {
	globalLoggerMu.RLock()
	defer globalLoggerMu.RUnlock()
	return globalLogger
}

// newRootCmd creates and returns the root command for the drover CLI.
// This function-based approach avoids package-level globals, making the
// code more testable and avoiding gochecknoglobals linter warnings.
func newRootCmd(flags *GlobalFlags, info BuildInfo) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "drover",
		Short: "Drover - board-driven marketing agent orchestration",
		Long: `Drover watches a kanban board and routes ready cards to AI marketing
agents. Each card is picked up by the agent matching its domain label,
executed through the completion API, and moved forward with a structured
result comment and a produced deliverable.

Features:
  • Polling orchestrator with per-cycle concurrency ceiling
  • Eight specialized marketing agents (SEO, content, ads, ...)
  • Agent-to-agent delegation through new board cards
  • Deliverable production to disk or GitHub
  • Live analytics context for analytics-domain tasks`,
		Version: formatVersion(info),
		// Run displays help when the root command is invoked without subcommands.
		// This ensures PersistentPreRunE is called for flag validation.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := BindGlobalFlags(v, cmd); err != nil {
				return fmt.Errorf("failed to bind flags: %w", err)
			}

			if !IsValidOutputFormat(flags.Output) {
				return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, flags.Output, ValidOutputFormats())
			}

			globalConfigFileMu.Lock()
			globalConfigFile = flags.Config
			globalConfigFileMu.Unlock()

			// Initialize logger based on flags (protected by mutex for thread safety)
			globalLoggerMu.Lock()
			globalLogger = InitLogger(flags.Verbose, flags.Quiet)
			globalLoggerMu.Unlock()

			return nil
		},
		// SilenceUsage prevents printing usage on error
		// (we handle our own error messages)
		SilenceUsage: true,
	}

	AddGlobalFlags(cmd, flags)

	AddRunCommand(cmd)
	AddPollCommand(cmd)
	AddTaskCommand(cmd)
	AddStatusCommand(cmd)
	AddCardCommand(cmd)
	AddConfigCommand(cmd)
	AddVersionCommand(cmd, info)

	return cmd
}

// formatVersion creates the version string from build info.
func formatVersion(info BuildInfo) string {
	if info.Version == "" {
		info.Version = "dev"
	}
	if info.Commit == "" {
		info.Commit = "none"
	}
	if info.Date == "" {
		info.Date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", info.Version, info.Commit, info.Date)
}

// Execute runs the root command with the provided context and build info.
func Execute(ctx context.Context, info BuildInfo) error {
	flags := &GlobalFlags{}
	//nolint:contextcheck // Cobra command pattern uses cmd.Context() internally
	cmd := newRootCmd(flags, info)
	return cmd.ExecuteContext(ctx)
}
