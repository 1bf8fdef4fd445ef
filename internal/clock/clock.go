// Package clock provides an abstraction for time operations to improve testability.
// Instead of calling time.Now() or time.Sleep() directly, code can use the Clock
// interface which can be mocked in tests to control time-dependent behavior.
package clock

import (
	"context"
	"time"
)

// Clock is an interface for time operations.
// This allows code to be tested with mock clocks.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for the given duration or until ctx is canceled,
	// whichever comes first. Returns ctx.Err() on cancellation.
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock implements Clock using the actual system time.
type RealClock struct{}

// Now returns the current time from the system clock.
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep waits for d using a timer, honoring context cancellation.
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Ensure RealClock implements Clock.
var _ Clock = RealClock{}
