// Package cli provides the command-line interface for drover.
package cli

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/agent"
	"github.com/droverhq/drover/internal/analytics"
	"github.com/droverhq/drover/internal/board"
	"github.com/droverhq/drover/internal/clock"
	"github.com/droverhq/drover/internal/config"
	"github.com/droverhq/drover/internal/deliver"
	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/httpx"
	"github.com/droverhq/drover/internal/orchestrator"
	"github.com/droverhq/drover/internal/ratelimit"
)

// runtime bundles the wired collaborators a command needs. Everything hangs
// off the loaded configuration; credentials are read from the environment
// exactly once, at wiring time.
type runtime struct {
	cfg     *config.Config
	board   *board.Client
	creator *board.CardCreator
	planner *agent.Planner
	orch    *orchestrator.Orchestrator
}

// loadConfig loads and validates the layered configuration. An explicit
// --config flag replaces file discovery; defaults and DROVER_ environment
// variables still apply.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := configOverride(); path != "" {
		cfg, err = config.LoadFromPaths(path, "")
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// buildRuntime constructs the full object graph from configuration: board
// client, completion client behind the shared rate limiter, one agent per
// registry definition, deliverable producer, and the orchestrator on top.
func buildRuntime(cfg *config.Config, logger zerolog.Logger) (*runtime, error) {
	clk := clock.RealClock{}

	boardClient, err := buildBoardClient(cfg, clk, logger)
	if err != nil {
		return nil, err
	}

	completer, err := buildCompletionClient(cfg, clk, logger)
	if err != nil {
		return nil, err
	}

	registry, err := agent.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load agent registry: %w", err)
	}

	creator := board.NewCardCreator(boardClient, registry.LabelColors(), logger)

	analyticsSource, err := buildAnalytics(cfg, logger)
	if err != nil {
		return nil, err
	}

	agents := make(map[domain.Domain]orchestrator.Agent, len(registry.All()))
	for _, def := range registry.All() {
		opts := []agent.Option{
			agent.WithCardMaker(creator),
			agent.WithClock(clk),
			agent.WithLogger(logger),
			agent.WithMaxDelegations(cfg.Orchestrator.MaxDelegations),
			agent.WithMaxDelegationDepth(cfg.Orchestrator.MaxDelegationDepth),
		}
		if analyticsSource != nil {
			opts = append(opts, agent.WithAnalytics(analyticsSource))
		}
		agents[def.Domain] = agent.New(def, completer, opts...)
	}

	producer, err := buildProducer(cfg, clk, logger)
	if err != nil {
		return nil, err
	}

	orch := orchestrator.New(boardClient, agents,
		orchestrator.WithProducer(producer),
		orchestrator.WithMaxConcurrent(cfg.Orchestrator.MaxConcurrent),
		orchestrator.WithPollInterval(cfg.Orchestrator.PollInterval),
		orchestrator.WithProcessedHistory(cfg.Orchestrator.ProcessedHistory),
		orchestrator.WithFailureStage(domain.Stage(cfg.Board.FailureStage)),
		orchestrator.WithClock(clk),
		orchestrator.WithLogger(logger),
	)

	return &runtime{
		cfg:     cfg,
		board:   boardClient,
		creator: creator,
		planner: agent.NewPlanner(completer, registry, logger),
		orch:    orch,
	}, nil
}

// buildBoardClient creates the board client with credentials from the
// environment.
func buildBoardClient(cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (*board.Client, error) {
	apiKey, err := cfg.Board.APIKey()
	if err != nil {
		return nil, err
	}
	token, err := cfg.Board.Token()
	if err != nil {
		return nil, err
	}

	return board.NewClient(apiKey, token, cfg.Board.BoardID,
		board.WithClock(clk),
		board.WithLogger(logger),
	), nil
}

// buildCompletionClient creates the completion API client behind a shared
// rate limiter sized from configuration.
func buildCompletionClient(cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (*agent.CompletionClient, error) {
	apiKey, err := cfg.Completion.APIKey()
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.New(cfg.Completion.BurstSize, cfg.Completion.RefillPerSec, clk)

	return agent.NewCompletionClient(apiKey, limiter,
		agent.WithModel(cfg.Completion.Model),
		agent.WithMaxTokens(cfg.Completion.MaxTokens),
		agent.WithCompletionHTTPClient(httpx.NewClient(
			httpx.WithTimeout(cfg.Completion.Timeout),
			httpx.WithLogger(logger),
		)),
		agent.WithCompletionLogger(logger),
	), nil
}

// buildAnalytics creates the analytics service when enabled, nil otherwise.
func buildAnalytics(cfg *config.Config, logger zerolog.Logger) (*analytics.Service, error) {
	if !cfg.Analytics.Enabled {
		return nil, nil
	}

	password, err := cfg.Analytics.Password()
	if err != nil {
		return nil, err
	}

	client := analytics.NewClient(cfg.Analytics.BaseURL, cfg.Analytics.WebsiteID, cfg.Analytics.Username, password,
		analytics.WithTimezone(cfg.Analytics.Timezone),
		analytics.WithLogger(logger),
	)

	var opts []analytics.ServiceOption
	if cfg.Analytics.GoogleEnabled() {
		creds := analytics.GoogleCredentials{KeyFile: cfg.Analytics.GoogleKeyFile}
		if creds.KeyFile == "" {
			email, key, err := cfg.Analytics.GoogleInlineCredentials()
			if err != nil {
				return nil, err
			}
			creds.ClientEmail, creds.PrivateKey = email, key
		}
		tokens, err := creds.TokenSource(context.Background())
		if err != nil {
			return nil, err
		}
		if cfg.Analytics.GA4PropertyID != "" {
			opts = append(opts, analytics.WithGA4Source(
				analytics.NewGA4Client(cfg.Analytics.GA4PropertyID, tokens,
					analytics.WithGA4Logger(logger))))
		}
		if cfg.Analytics.SearchConsoleSiteURL != "" {
			opts = append(opts, analytics.WithSearchConsoleSource(
				analytics.NewSearchConsoleClient(cfg.Analytics.SearchConsoleSiteURL, tokens,
					analytics.WithSearchConsoleLogger(logger))))
		}
	}
	return analytics.NewService(client, opts...), nil
}

// buildProducer creates the deliverable producer, attaching the GitHub
// client only when owner, repo, and token are all configured.
func buildProducer(cfg *config.Config, clk clock.Clock, logger zerolog.Logger) (*deliver.Producer, error) {
	opts := []deliver.ProducerOption{
		deliver.WithClock(clk),
		deliver.WithLogger(logger),
	}

	if cfg.GitHub.Enabled() {
		token, err := cfg.GitHub.Token()
		if err != nil {
			return nil, err
		}
		gh := deliver.NewGitHubClient(cfg.GitHub.Owner, cfg.GitHub.Repo, token,
			deliver.WithGitHubLogger(logger),
		)
		opts = append(opts, deliver.WithGitHub(gh))
	}

	return deliver.NewProducer(cfg.Output.Dir, opts...), nil
}
