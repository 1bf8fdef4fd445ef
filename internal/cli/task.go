// Package cli provides the command-line interface for drover.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// AddTaskCommand adds the task command group to the root command.
func AddTaskCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Operate on individual board cards",
	}

	cmd.AddCommand(newTaskRunCmd())
	parent.AddCommand(cmd)
}

// newTaskRunCmd creates the task run subcommand.
func newTaskRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <card-id>",
		Short: "Execute one card immediately, regardless of its stage",
		Long: `Execute a single card by ID through the normal agent pipeline.

The card is moved to in-progress, executed by the agent matching its
domain label, and moved forward with a result comment, exactly as the
poll loop would do. The command exits non-zero if execution fails; the
failure comment and stage move are written to the board first.

Examples:
  drover task run 64f2ab31c9          # Run one card by its board ID`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSingleTask(cmd.Context(), args[0])
		},
	}
}

// runSingleTask wires the runtime and executes one card by ID.
func runSingleTask(ctx context.Context, cardID string) error {
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

	if err := rt.orch.RunSingle(ctx, cardID); err != nil {
		return fmt.Errorf("card %s failed: %w", cardID, err)
	}

	logger.Info().Str("card_id", cardID).Msg("card executed")
	return nil
}
