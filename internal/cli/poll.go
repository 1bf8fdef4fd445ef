// Package cli provides the command-line interface for drover.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// AddPollCommand adds the poll command to the root command.
func AddPollCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run a single poll cycle and exit",
		Long: `Initialize the board and run exactly one poll cycle.

Every ready card is dispatched within the cycle, up to the configured
concurrency ceiling, and the command waits for all dispatched tasks to
finish before exiting. Useful for cron-style scheduling where a resident
process is not wanted.

Examples:
  drover poll             # One cycle, then exit
  drover poll --quiet     # One cycle, warnings only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPollOnce(cmd.Context())
		},
	}
	parent.AddCommand(cmd)
}

// runPollOnce wires the runtime, initializes the board, and runs one cycle.
func runPollOnce(ctx context.Context) error {
	logger := GetLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}

	if err := rt.board.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize board: %w", err)
	}

	if err := rt.orch.Poll(ctx); err != nil {
		return fmt.Errorf("poll cycle failed: %w", err)
	}

	logger.Info().Msg("poll cycle complete")
	return nil
}
