// Package ratelimit provides a token-bucket limiter shared by all callers of
// the completion API. Limiters are constructed explicitly and injected into
// the components that need them, so tests can substitute a no-delay limiter
// and multiple orchestrators never fight over hidden shared state.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/droverhq/drover/internal/clock"
)

// Limiter is a token-bucket rate limiter. The bucket holds up to maxTokens
// and refills continuously at refillPerSec, computed lazily from elapsed
// wall-clock time on each Acquire; there is no background timer.
//
// Acquire is safe for concurrent use. No fairness beyond arrival order is
// guaranteed.
type Limiter struct {
	mu           sync.Mutex
	tokens       float64
	maxTokens    float64
	refillPerSec float64
	lastRefill   time.Time
	clk          clock.Clock
}

// New creates a Limiter with burst capacity maxTokens and a refill rate of
// refillPerSec tokens per second. The bucket starts full.
func New(maxTokens int, refillPerSec float64, clk clock.Clock) *Limiter {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Limiter{
		tokens:       float64(maxTokens),
		maxTokens:    float64(maxTokens),
		refillPerSec: refillPerSec,
		lastRefill:   clk.Now(),
		clk:          clk,
	}
}

// Acquire consumes one token, waiting for the bucket to refill if necessary.
// It always eventually grants a token unless ctx is canceled first.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		wait, ok := l.tryTake()
		if ok {
			return nil
		}
		if err := l.clk.Sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// tryTake refills from elapsed time and consumes a token if one is available.
// Otherwise it returns the minimum wait for one token to accumulate.
func (l *Limiter) tryTake() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens = min(l.maxTokens, l.tokens+elapsed*l.refillPerSec)
	l.lastRefill = now

	if l.tokens >= 1 {
		l.tokens--
		return 0, true
	}

	waitSec := (1 - l.tokens) / l.refillPerSec
	return time.Duration(waitSec * float64(time.Second)), false
}

// Tokens reports the current token count after refill, for observability.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clk.Now()
	elapsed := now.Sub(l.lastRefill).Seconds()
	l.tokens = min(l.maxTokens, l.tokens+elapsed*l.refillPerSec)
	l.lastRefill = now
	return l.tokens
}
