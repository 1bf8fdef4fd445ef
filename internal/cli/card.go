// Package cli provides the command-line interface for drover.
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
)

// cardCreateFlags holds the flags for the card create subcommand.
type cardCreateFlags struct {
	Title       string
	Description string
	Domain      string
	Priority    string
	Stage       string
	Checklist   []string
}

// cardPlanFlags holds the flags for the card plan subcommand.
type cardPlanFlags struct {
	Domains []string
	Context []string
	DryRun  bool
}

// AddCardCommand adds the card command group to the root command.
func AddCardCommand(parent *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "card",
		Short: "Create board cards by hand or from an objective",
	}

	cmd.AddCommand(newCardCreateCmd())
	cmd.AddCommand(newCardPlanCmd())
	parent.AddCommand(cmd)
}

// newCardCreateCmd creates the card create subcommand.
func newCardCreateCmd() *cobra.Command {
	flags := &cardCreateFlags{}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a single routed card on the board",
		Long: `Create one card with the labels the orchestrator routes on.

The domain flag decides which agent will pick the card up; priority and
stage are optional and default to medium and todo.

Examples:
  drover card create --title "Audit SEO" --domain seo
  drover card create --title "Newsletter Q3" --domain email --priority high \
    --description "Préparer la newsletter trimestrielle"`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCardCreate(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.Title, "title", "", "card title (required)")
	cmd.Flags().StringVar(&flags.Description, "description", "", "card description")
	cmd.Flags().StringVar(&flags.Domain, "domain", "", "target agent domain (required)")
	cmd.Flags().StringVar(&flags.Priority, "priority", string(domain.PriorityMedium), "card priority")
	cmd.Flags().StringVar(&flags.Stage, "stage", string(domain.StageTodo), "workflow stage for the new card")
	cmd.Flags().StringSliceVar(&flags.Checklist, "checklist", nil, "acceptance criteria checklist items")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}

// runCardCreate validates the flags and creates one card.
func runCardCreate(ctx context.Context, flags *cardCreateFlags) error {
	target, err := domain.ValidateDomain(flags.Domain)
	if err != nil {
		return err
	}
	priority, err := domain.ValidatePriority(flags.Priority)
	if err != nil {
		return err
	}
	stage, err := domain.ValidateStage(flags.Stage)
	if err != nil {
		return err
	}

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

	result, err := rt.creator.CreateFromRequest(ctx, domain.CardCreationRequest{
		Title:        flags.Title,
		Description:  flags.Description,
		Stage:        stage,
		TargetDomain: target,
		Priority:     priority,
		Checklist:    flags.Checklist,
	})
	if err != nil {
		return fmt.Errorf("failed to create card: %w", err)
	}

	logger.Info().
		Str("card_id", result.CardID).
		Str("domain", string(result.TargetDomain)).
		Msg("card created")
	fmt.Println(result.CardURL)
	return nil
}

// newCardPlanCmd creates the card plan subcommand.
func newCardPlanCmd() *cobra.Command {
	flags := &cardPlanFlags{}

	cmd := &cobra.Command{
		Use:   "plan <objective>",
		Short: "Turn a free-form objective into routed cards",
		Long: `Ask the planner to break a marketing objective into one task per
relevant agent, then create the resulting cards on the board.

Without --domain flags the planner detects relevant domains from the
objective text. With --dry-run the planned tasks are printed and no
cards are created.

Examples:
  drover card plan "Lancer le nouveau produit en septembre"
  drover card plan "Refondre le site" --domain seo --domain content
  drover card plan "Campagne de Noël" --context "budget=5000€" --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCardPlan(cmd.Context(), flags, args[0])
		},
	}

	cmd.Flags().StringSliceVar(&flags.Domains, "domain", nil, "restrict planning to these domains (repeatable)")
	cmd.Flags().StringSliceVar(&flags.Context, "context", nil, "additional key=value context (repeatable)")
	cmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "print planned tasks without creating cards")

	return cmd
}

// runCardPlan generates prompts from the objective and creates the cards.
func runCardPlan(ctx context.Context, flags *cardPlanFlags, objective string) error {
	targets, err := parsePlanDomains(flags.Domains)
	if err != nil {
		return err
	}
	extra, err := parseContextFlags(flags.Context)
	if err != nil {
		return err
	}

	logger := GetLogger()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rt, err := buildRuntime(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to build runtime: %w", err)
	}

	prompts, err := rt.planner.GenerateFromObjective(ctx, objective, extra, targets)
	if err != nil {
		return fmt.Errorf("failed to plan objective: %w", err)
	}

	if flags.DryRun {
		for _, prompt := range prompts {
			fmt.Printf("[%s] %s\n", prompt.TargetDomain, prompt.Title)
		}
		return nil
	}

	if err := rt.board.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize board: %w", err)
	}

	results, err := rt.creator.CreateFromPrompts(ctx, prompts, "")
	if err != nil {
		return fmt.Errorf("failed to create planned cards: %w", err)
	}

	for _, result := range results {
		logger.Info().
			Str("card_id", result.CardID).
			Str("domain", string(result.TargetDomain)).
			Str("title", result.Title).
			Msg("planned card created")
		fmt.Println(result.CardURL)
	}
	return nil
}

// parsePlanDomains validates the repeatable --domain flags.
func parsePlanDomains(values []string) ([]domain.Domain, error) {
	targets := make([]domain.Domain, 0, len(values))
	for _, value := range values {
		target, err := domain.ValidateDomain(value)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

// parseContextFlags turns repeatable key=value flags into a context map.
func parseContextFlags(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	extra := make(map[string]string, len(values))
	for _, value := range values {
		key, val, ok := strings.Cut(value, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, errors.Wrapf(errors.ErrInvalidFlagValue, "context entry %q is not key=value", value)
		}
		extra[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	return extra, nil
}
