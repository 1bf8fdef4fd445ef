// Package signal provides graceful shutdown handling for drover CLI commands.
//
// Import rules:
//   - CAN import: std lib only
//   - MUST NOT import: internal packages (to avoid circular dependencies)
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler cancels a wrapped context when SIGINT or SIGTERM is received,
// letting long-running commands distinguish an operator interrupt from an
// ordinary context cancellation.
type Handler struct {
	ctx         context.Context //nolint:containedctx // intentional: handler manages context lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{}
	notify      chan os.Signal

	interruptOnce sync.Once
	stopOnce      sync.Once
}

// NewHandler creates a signal handler listening for SIGINT and SIGTERM on
// top of parent. When a signal arrives, the wrapped context is canceled and
// the Interrupted channel is closed.
//
// Usage:
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	ctx = h.Context()
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// Buffered so signal.Notify never drops a signal while the
		// handler goroutine is busy.
		notify: make(chan os.Signal, 1),
	}

	signal.Notify(h.notify, syscall.SIGINT, syscall.SIGTERM)
	go h.wait()

	return h
}

// Context returns the cancellable context. Use it for all operations that
// should stop on Ctrl+C.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes when an interrupt signal was
// received. It stays open when the context was canceled for another reason.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Stop unregisters the signal handler and cancels the wrapped context.
// Safe to call more than once.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.notify)
		close(h.done)
		h.cancel()
	})
}

// markInterrupted cancels the context and closes the interrupted channel.
// Only the first signal has effect.
func (h *Handler) markInterrupted() {
	h.interruptOnce.Do(func() {
		h.cancel()
		close(h.interrupted)
	})
}

// wait blocks until a signal arrives, the handler is stopped, or the context
// is canceled externally. It keeps draining the signal channel so repeated
// Ctrl+C presses never block signal delivery.
func (h *Handler) wait() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case <-h.notify:
			h.markInterrupted()
		}
	}
}
