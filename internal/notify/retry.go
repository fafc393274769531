package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhle/restaurant-notify/internal/source"
)

// cycleOutcome is the retry controller's verdict on one polling cycle.
type cycleOutcome int

const (
	// cycleSucceeded: the fetch completed; results may be published.
	cycleSucceeded cycleOutcome = iota

	// cycleAbortSilent: stop this cycle but leave published state
	// untouched (rate limiting, exhausted retries, cancellation).
	cycleAbortSilent

	// cycleAbortClear: the session is invalid; published state must
	// be emptied immediately and no retry attempted.
	cycleAbortClear
)

// retryController wraps one polling attempt, classifying failures and
// retrying transient ones with exponential backoff (1s, 2s, 4s). Every
// wait selects on the session context, so a logout cancels any pending
// backoff timer instead of letting an abandoned chain fire later.
type retryController struct {
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	log        zerolog.Logger
}

func newRetryController(log zerolog.Logger) *retryController {
	return &retryController{
		maxRetries: 3,
		baseDelay:  time.Second,
		sleep:      sleepCtx,
		log:        log,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// run invokes attempt until it succeeds, fails terminally, or exhausts
// the retry budget. A successful attempt resets nothing here because
// the controller is stateless across cycles: each call starts at
// attempt zero.
func (rc *retryController) run(ctx context.Context, attempt func(context.Context) error) cycleOutcome {
	for try := 0; ; try++ {
		err := attempt(ctx)
		if err == nil {
			return cycleSucceeded
		}

		if source.IsAuthError(err) {
			rc.log.Warn().Err(err).Msg("authentication lost; clearing notifications")
			return cycleAbortClear
		}
		if source.IsRateLimitError(err) {
			rc.log.Debug().Err(err).Msg("rate limited; skipping cycle")
			return cycleAbortSilent
		}
		if errors.Is(err, context.Canceled) {
			return cycleAbortSilent
		}

		if try >= rc.maxRetries {
			rc.log.Warn().Err(err).Int("attempts", try+1).
				Msg("fetch failed after retries; abandoning cycle")
			return cycleAbortSilent
		}

		delay := rc.baseDelay << uint(try)
		rc.log.Debug().Err(err).Dur("delay", delay).Int("attempt", try+1).
			Msg("fetch failed; retrying")
		if rc.sleep(ctx, delay) != nil {
			return cycleAbortSilent
		}
	}
}
