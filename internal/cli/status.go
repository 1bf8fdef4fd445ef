// Package cli provides the command-line interface for drover.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/board"
	"github.com/droverhq/drover/internal/clock"
	"github.com/droverhq/drover/internal/domain"
)

// statusRow is one card in the status table.
type statusRow struct {
	CardID   string `json:"card_id"`
	Title    string `json:"title"`
	Stage    string `json:"stage"`
	Domain   string `json:"domain"`
	Priority string `json:"priority"`
}

// BoardReader is the subset of the board client the status command uses.
// Used for dependency injection in tests.
type BoardReader interface {
	Initialize(ctx context.Context) error
	AllCards(ctx context.Context) ([]board.Card, error)
	ParseCard(card board.Card) domain.Task
}

// AddStatusCommand adds the status command to the root command.
func AddStatusCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the board as seen by the orchestrator",
		Long: `Display every card on the configured board with the stage, domain,
and priority the orchestrator would derive from it.

Cards are sorted by workflow stage, then by priority within a stage, so
the next cards to be picked up appear first within the todo stage. Only
board credentials are required; the completion API is never contacted.

Examples:
  drover status               # Display the board table
  drover status --output json # Display as a JSON array`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, os.Stdout)
		},
	}
	parent.AddCommand(cmd)
}

// runStatus executes the status command with production dependencies.
func runStatus(ctx context.Context, cmd *cobra.Command, w io.Writer) error {
	output := cmd.Flag("output").Value.String()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	boardClient, err := buildBoardClient(cfg, clock.RealClock{}, GetLogger())
	if err != nil {
		return err
	}

	return runStatusWithDeps(ctx, w, output, boardClient)
}

// runStatusWithDeps executes the status command with injected dependencies.
// This enables testing with mock implementations.
func runStatusWithDeps(ctx context.Context, w io.Writer, output string, b BoardReader) error {
	if err := b.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize board: %w", err)
	}

	cards, err := b.AllCards(ctx)
	if err != nil {
		return fmt.Errorf("failed to list cards: %w", err)
	}

	rows := buildStatusRows(b, cards)

	if output == OutputJSON {
		return outputStatusJSON(w, rows)
	}
	return outputStatusTable(w, rows)
}

// buildStatusRows parses every card and sorts the rows by stage, then
// priority within a stage.
func buildStatusRows(b BoardReader, cards []board.Card) []statusRow {
	tasks := make([]domain.Task, 0, len(cards))
	for _, card := range cards {
		tasks = append(tasks, b.ParseCard(card))
	}

	order := stageOrder()
	sort.SliceStable(tasks, func(i, j int) bool {
		if order[tasks[i].Stage] != order[tasks[j].Stage] {
			return order[tasks[i].Stage] < order[tasks[j].Stage]
		}
		return tasks[i].Priority.Rank() < tasks[j].Priority.Rank()
	})

	rows := make([]statusRow, 0, len(tasks))
	for _, task := range tasks {
		rows = append(rows, statusRow{
			CardID:   task.CardID,
			Title:    task.Title,
			Stage:    string(task.Stage),
			Domain:   string(task.Domain),
			Priority: string(task.Priority),
		})
	}
	return rows
}

// stageOrder maps each workflow stage to its display position.
func stageOrder() map[domain.Stage]int {
	order := make(map[domain.Stage]int, len(domain.Stages()))
	for i, stage := range domain.Stages() {
		order[stage] = i
	}
	return order
}

// outputStatusJSON outputs status rows as an indented JSON array.
func outputStatusJSON(w io.Writer, rows []statusRow) error {
	if rows == nil {
		rows = []statusRow{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

// outputStatusTable renders status rows as a table with a summary footer.
func outputStatusTable(w io.Writer, rows []statusRow) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Title", "Stage", "Domain", "Priority"})
	for _, row := range rows {
		tw.AppendRow(table.Row{row.CardID, row.Title, row.Stage, row.Domain, row.Priority})
	}
	tw.Render()

	_, _ = fmt.Fprintln(w, buildStatusFooter(rows))
	return nil
}

// buildStatusFooter creates the one-line summary under the table.
func buildStatusFooter(rows []statusRow) string {
	ready := 0
	for _, row := range rows {
		if row.Stage == string(domain.StageTodo) {
			ready++
		}
	}

	cardWord := "cards"
	if len(rows) == 1 {
		cardWord = "card"
	}
	return fmt.Sprintf("%d %s, %d ready", len(rows), cardWord, ready)
}
