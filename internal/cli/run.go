// Package cli provides the command-line interface for drover.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/signal"
)

// AddRunCommand adds the run command to the root command.
func AddRunCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the orchestrator until interrupted",
		Long: `Start the polling orchestrator as a long-running process.

The orchestrator initializes the board, runs one poll cycle immediately,
then polls on the configured interval. Ready cards are routed to the agent
matching their domain label, up to the configured concurrency ceiling.

Press Ctrl+C to stop. In-flight poll cycles finish before shutdown.

Examples:
  drover run              # Run with the layered configuration
  drover run --verbose    # Run with debug-level logging`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd.Context())
		},
	}
	parent.AddCommand(cmd)
}

// runDaemon wires the runtime and runs the orchestrator until the context is
// canceled or an interrupt signal arrives.
func runDaemon(ctx context.Context) error {
	logger := GetLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}

	handler := signal.NewHandler(ctx)
	defer handler.Stop()

	if err := rt.orch.Start(handler.Context()); err != nil {
		return fmt.Errorf("failed to start orchestrator: %w", err)
	}

	<-handler.Context().Done()

	select {
	case <-handler.Interrupted():
		logger.Info().Msg("interrupt received, shutting down")
	default:
	}

	rt.orch.Stop()
	return nil
}
