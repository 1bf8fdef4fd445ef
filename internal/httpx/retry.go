package httpx

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/droverhq/drover/internal/clock"
	"github.com/droverhq/drover/internal/constants"
	"github.com/droverhq/drover/internal/errors"
)

// Retry executes op with exponential backoff, up to constants.MaxRetryAttempts
// attempts. It is an opt-in utility: the orchestrator's default path does not
// retry, so callers needing resilience wrap their own operations explicitly.
func Retry(ctx context.Context, logger zerolog.Logger, clk clock.Clock, op func(context.Context) error) error {
	if clk == nil {
		clk = clock.RealClock{}
	}

	var lastErr error
	backoff := constants.InitialBackoff

	for attempt := 1; attempt <= constants.MaxRetryAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info().Int("attempt", attempt).Msg("operation succeeded after retry")
			}
			return nil
		}

		// Cancellation is never retried.
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		if attempt < constants.MaxRetryAttempts {
			logger.Warn().
				Err(err).
				Int("attempt", attempt).
				Int("max_attempts", constants.MaxRetryAttempts).
				Dur("backoff", backoff).
				Msg("operation failed, will retry after backoff")

			if sleepErr := clk.Sleep(ctx, backoff); sleepErr != nil {
				return sleepErr
			}
			backoff *= constants.BackoffMultiplier
		}
	}

	return errors.Wrapf(errors.ErrMaxRetriesExceeded, "after %d attempts: %v",
		constants.MaxRetryAttempts, lastErr)
}
