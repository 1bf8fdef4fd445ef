package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances only when Sleep is called, recording total slept time.
type fakeClock struct {
	mu    sync.Mutex
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	f.slept += d
	return nil
}

func TestLimiter_BurstWithinCapacity(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := New(5, 2, clk)

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}

	assert.Equal(t, time.Duration(0), clk.slept, "burst within capacity must not wait")
}

func TestLimiter_ExtraCallWaitsForRefill(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := New(5, 2, clk) // refill 2 tokens/sec => one token every 500ms

	for i := 0; i < 5; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
	require.NoError(t, l.Acquire(context.Background()))

	assert.GreaterOrEqual(t, clk.slept, 499*time.Millisecond,
		"sixth acquire must wait about 1/refillRate seconds")
	assert.Less(t, clk.slept, 600*time.Millisecond)
}

func TestLimiter_RefillCapsAtMax(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := New(3, 10, clk)

	// Drain, then let far more time pass than needed to refill.
	for i := 0; i < 3; i++ {
		require.NoError(t, l.Acquire(context.Background()))
	}
	clk.mu.Lock()
	clk.now = clk.now.Add(time.Hour)
	clk.mu.Unlock()

	assert.InDelta(t, 3.0, l.Tokens(), 0.001, "bucket never exceeds capacity")
}

func TestLimiter_AcquireHonorsCancellation(t *testing.T) {
	t.Parallel()

	clk := newFakeClock()
	l := New(1, 0.001, clk)

	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := l.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestLimiter_ConcurrentAcquire(t *testing.T) {
	t.Parallel()

	l := New(10, 1000, nil) // real clock, fast refill

	var wg sync.WaitGroup
	errs := make([]error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = l.Acquire(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
}
