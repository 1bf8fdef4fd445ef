// Package orchestrator runs the poll-dispatch loop: it watches the board for
// available cards, routes each to the agent owning its domain, and writes the
// outcome back to the board.
//
// Concurrency is bounded by a fixed ceiling, already-processed cards are
// skipped via a bounded FIFO set, and candidates are dispatched in priority
// order. One Poll call handles one cycle; Start owns the ticker.
package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/board"
	"github.com/droverhq/drover/internal/clock"
	"github.com/droverhq/drover/internal/constants"
	"github.com/droverhq/drover/internal/domain"
	"github.com/droverhq/drover/internal/errors"
)

const nextStepsChecklist = "Prochaines étapes"

// Board is the board surface the orchestrator drives.
type Board interface {
	Initialize(ctx context.Context) error
	AvailableCards(ctx context.Context) ([]board.Card, error)
	AllCards(ctx context.Context) ([]board.Card, error)
	ParseCard(card board.Card) domain.Task
	MoveCard(ctx context.Context, cardID string, stage domain.Stage) error
	AddComment(ctx context.Context, cardID, text string) error
	AddChecklist(ctx context.Context, cardID, name string, items []string) error
}

// Agent executes tasks for one domain.
type Agent interface {
	Execute(ctx context.Context, task domain.Task) (*domain.AgentResult, error)
	Name() string
}

// Producer materializes deliverables.
type Producer interface {
	Produce(ctx context.Context, d domain.Deliverable) (string, error)
}

// RunningTask is one in-flight execution.
type RunningTask struct {
	Task      domain.Task
	AgentName string
	StartedAt time.Time
}

// StatusEntry is a point-in-time view of one running task.
type StatusEntry struct {
	CardID  string
	Title   string
	Agent   string
	Elapsed time.Duration
}

// Orchestrator owns the poll loop state.
type Orchestrator struct {
	board         Board
	agents        map[domain.Domain]Agent
	producer      Producer
	maxConcurrent int
	pollInterval  time.Duration
	failureStage  domain.Stage
	clk           clock.Clock
	logger        zerolog.Logger

	mu        sync.Mutex
	running   map[string]RunningTask
	processed *processedSet
	stopCh    chan struct{}
	doneCh    chan struct{}
	started   bool
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProducer sets the deliverable producer.
func WithProducer(p Producer) Option {
	return func(o *Orchestrator) { o.producer = p }
}

// WithMaxConcurrent sets the ceiling on simultaneously running tasks.
func WithMaxConcurrent(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConcurrent = n
		}
	}
}

// WithPollInterval sets the board polling cadence.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.pollInterval = d
		}
	}
}

// WithProcessedHistory bounds the processed-card set.
func WithProcessedHistory(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.processed = newProcessedSet(n)
		}
	}
}

// WithFailureStage sets where failed cards are moved back to.
func WithFailureStage(stage domain.Stage) Option {
	return func(o *Orchestrator) { o.failureStage = stage }
}

// WithClock overrides the clock, for tests.
func WithClock(clk clock.Clock) Option {
	return func(o *Orchestrator) { o.clk = clk }
}

// WithLogger sets the orchestrator logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger.With().Str("component", "orchestrator").Logger()
	}
}

// New creates an Orchestrator over a board and a set of agents keyed by domain.
func New(b Board, agents map[domain.Domain]Agent, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		board:         b,
		agents:        agents,
		maxConcurrent: constants.DefaultMaxConcurrent,
		pollInterval:  constants.DefaultPollInterval,
		failureStage:  domain.StageTodo,
		clk:           clock.RealClock{},
		logger:        zerolog.Nop(),
		running:       make(map[string]RunningTask),
		processed:     newProcessedSet(constants.DefaultProcessedHistory),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Poll runs one cycle: collect available cards, filter out running and
// already-processed ones, order by priority, and dispatch up to the free
// concurrency budget. Callers serialize Poll; the ticker loop does.
func (o *Orchestrator) Poll(ctx context.Context) error {
	o.mu.Lock()
	free := o.maxConcurrent - len(o.running)
	o.mu.Unlock()
	if free <= 0 {
		o.logger.Debug().Msg("no free slots, skipping poll cycle")
		return nil
	}

	cards, err := o.board.AvailableCards(ctx)
	if err != nil {
		return errors.Wrap(err, "listing available cards")
	}

	tasks := o.candidates(cards)
	if len(tasks) == 0 {
		return nil
	}
	if len(tasks) > free {
		tasks = tasks[:free]
	}

	for _, task := range tasks {
		o.dispatch(ctx, task)
	}
	return nil
}

// candidates parses and filters cards, returning them in stable priority
// order so equal-priority cards keep their board order.
func (o *Orchestrator) candidates(cards []board.Card) []domain.Task {
	o.mu.Lock()
	defer o.mu.Unlock()

	tasks := make([]domain.Task, 0, len(cards))
	for _, card := range cards {
		task := o.board.ParseCard(card)
		if _, busy := o.running[task.ID]; busy {
			continue
		}
		if o.processed.Contains(task.CardID) {
			continue
		}
		tasks = append(tasks, task)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority.Rank() < tasks[j].Priority.Rank()
	})
	return tasks
}

// dispatch runs one task synchronously: move to in-progress, execute, then
// write the outcome back. Dispatch failures never abort the poll cycle.
func (o *Orchestrator) dispatch(ctx context.Context, task domain.Task) {
	logger := o.logger.With().
		Str("execution_id", uuid.NewString()).
		Str("task_id", task.ID).
		Str("domain", string(task.Domain)).
		Logger()

	agent, ok := o.agents[task.Domain]
	if !ok {
		logger.Warn().Err(errors.ErrNoAgentForDomain).Msg("skipping card")
		return
	}

	if err := o.board.MoveCard(ctx, task.CardID, domain.StageInProgress); err != nil {
		logger.Error().Err(err).Msg("could not move card to in progress")
		return
	}

	o.mu.Lock()
	o.running[task.ID] = RunningTask{Task: task, AgentName: agent.Name(), StartedAt: o.clk.Now()}
	o.mu.Unlock()

	result, err := agent.Execute(ctx, task)

	o.mu.Lock()
	delete(o.running, task.ID)
	o.mu.Unlock()

	if err != nil {
		logger.Error().Err(err).Msg("task failed")
		o.handleError(ctx, task, err)
		return
	}
	if err := o.handleResult(ctx, logger, task, result); err != nil {
		logger.Error().Err(err).Msg("deliverable production failed")
		o.handleError(ctx, task, err)
	}
}

// handleResult materializes the deliverable, records the card as processed,
// and writes comment, checklist, and stage move back to the board. A produce
// failure aborts the success path: the card is not marked processed, so the
// next poll retries it. Board write failures after that point are logged,
// never fatal: the work itself is done.
func (o *Orchestrator) handleResult(ctx context.Context, logger zerolog.Logger, task domain.Task, result *domain.AgentResult) error {
	comment := result.BoardComment
	if o.producer != nil {
		output, err := o.producer.Produce(ctx, result.Deliverable)
		if err != nil {
			return errors.Wrap(err, "producing deliverable")
		}
		comment += "\n\n📦 Livrable disponible : " + output
	}

	o.mu.Lock()
	o.processed.Add(task.CardID)
	o.mu.Unlock()

	if err := o.board.AddComment(ctx, task.CardID, comment); err != nil {
		logger.Warn().Err(err).Msg("could not comment card")
	}
	if len(result.NextSteps) > 0 {
		if err := o.board.AddChecklist(ctx, task.CardID, nextStepsChecklist, result.NextSteps); err != nil {
			logger.Warn().Err(err).Msg("could not add next-steps checklist")
		}
	}

	target := domain.StageDone
	if result.Status == domain.StatusNeedsReview {
		target = domain.StageReview
	}
	if err := o.board.MoveCard(ctx, task.CardID, target); err != nil {
		logger.Warn().Err(err).Str("stage", string(target)).Msg("could not move card")
	}

	logger.Info().Str("status", string(result.Status)).Msg("task completed")
	return nil
}

// handleError posts a diagnostic comment and moves the card to the failure
// stage. Both are attempted regardless of the other failing.
func (o *Orchestrator) handleError(ctx context.Context, task domain.Task, execErr error) {
	message := execErr.Error()
	if runes := []rune(message); len(runes) > constants.MaxCommentErrorLen {
		message = string(runes[:constants.MaxCommentErrorLen]) + "…"
	}

	comment := fmt.Sprintf("⚠️ **Échec du traitement automatique**\n\nErreur : %s\n\n💡 %s",
		message, suggestFix(execErr.Error()))
	if err := o.board.AddComment(ctx, task.CardID, comment); err != nil {
		o.logger.Warn().Err(err).Str("card_id", task.CardID).Msg("could not post failure comment")
	}
	if err := o.board.MoveCard(ctx, task.CardID, o.failureStage); err != nil {
		o.logger.Warn().Err(err).Str("card_id", task.CardID).Msg("could not move failed card")
	}
}

// suggestFix maps common failure signatures to an operator hint.
func suggestFix(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "timeout"):
		return "Réessayer plus tard ou augmenter le délai d'attente configuré."
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429"):
		return "La limite d'appels API est atteinte, réessayer dans quelques minutes."
	case strings.Contains(lower, "auth") || strings.Contains(lower, "401") || strings.Contains(lower, "403"):
		return "Vérifier les identifiants API dans les variables d'environnement."
	case strings.Contains(lower, "not found") || strings.Contains(lower, "404"):
		return "Vérifier que la ressource référencée existe toujours."
	case strings.Contains(lower, "path traversal"):
		return "Le titre de la carte produit un chemin invalide, le reformuler."
	}
	return "Consulter les logs pour plus de détails."
}

// Start initializes the board, runs an immediate poll, and launches the
// ticker loop. It returns ErrOrchestratorRunning when already started.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return errors.ErrOrchestratorRunning
	}
	o.started = true
	o.stopCh = make(chan struct{})
	o.doneCh = make(chan struct{})
	o.mu.Unlock()

	if err := o.board.Initialize(ctx); err != nil {
		o.mu.Lock()
		o.started = false
		// loop never ran; close doneCh so a concurrent Stop cannot
		// block waiting on it.
		close(o.doneCh)
		o.mu.Unlock()
		return errors.Wrap(err, "initializing board")
	}

	o.logger.Info().
		Int("max_concurrent", o.maxConcurrent).
		Dur("poll_interval", o.pollInterval).
		Msg("orchestrator started")

	if err := o.Poll(ctx); err != nil {
		o.logger.Error().Err(err).Msg("poll cycle failed")
	}

	go o.loop(ctx)
	return nil
}

func (o *Orchestrator) loop(ctx context.Context) {
	defer close(o.doneCh)

	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopCh:
			return
		case <-ticker.C:
			if err := o.Poll(ctx); err != nil {
				o.logger.Error().Err(err).Msg("poll cycle failed")
			}
		}
	}
}

// Stop halts the ticker loop and waits for it to exit. Safe to call when not
// running, and safe to call twice.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return
	}
	o.started = false
	stopCh, doneCh := o.stopCh, o.doneCh
	o.mu.Unlock()

	close(stopCh)
	<-doneCh
	o.logger.Info().Msg("orchestrator stopped")
}

// RunSingle executes one card by ID regardless of its stage, through the same
// result and error paths as the poll loop, and re-throws the execution error
// after the board side effects.
func (o *Orchestrator) RunSingle(ctx context.Context, cardID string) error {
	cards, err := o.board.AllCards(ctx)
	if err != nil {
		return errors.Wrap(err, "listing cards")
	}

	var found *board.Card
	for i := range cards {
		if cards[i].ID == cardID {
			found = &cards[i]
			break
		}
	}
	if found == nil {
		return errors.Wrapf(errors.ErrCardNotFound, "%s", cardID)
	}

	task := o.board.ParseCard(*found)
	agent, ok := o.agents[task.Domain]
	if !ok {
		return errors.Wrapf(errors.ErrNoAgentForDomain, "%s", task.Domain)
	}

	if err := o.board.MoveCard(ctx, task.CardID, domain.StageInProgress); err != nil {
		return errors.Wrap(err, "moving card to in progress")
	}

	o.mu.Lock()
	o.running[task.ID] = RunningTask{Task: task, AgentName: agent.Name(), StartedAt: o.clk.Now()}
	o.mu.Unlock()

	result, execErr := agent.Execute(ctx, task)

	o.mu.Lock()
	delete(o.running, task.ID)
	o.mu.Unlock()

	if execErr != nil {
		o.handleError(ctx, task, execErr)
		return errors.Wrapf(execErr, "running card %s", cardID)
	}
	if err := o.handleResult(ctx, o.logger, task, result); err != nil {
		o.handleError(ctx, task, err)
		return errors.Wrapf(err, "running card %s", cardID)
	}
	return nil
}

// Status snapshots the currently running tasks.
func (o *Orchestrator) Status() []StatusEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	now := o.clk.Now()
	entries := make([]StatusEntry, 0, len(o.running))
	for _, rt := range o.running {
		entries = append(entries, StatusEntry{
			CardID:  rt.Task.CardID,
			Title:   rt.Task.Title,
			Agent:   rt.AgentName,
			Elapsed: now.Sub(rt.StartedAt),
		})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].CardID < entries[j].CardID })
	return entries
}
