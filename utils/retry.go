package utils

import (
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig holds the parameters for the retry strategy. When Jitter is set
// each wait is scaled by a random factor in [0.5, 1.5), so retries of many
// crawler instances against the same site do not fall into lockstep.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration // caps the back-off growth; 0 means uncapped
	Jitter      bool
	Logger      *Logger

	sleep func(time.Duration) // overridable in tests
}

// Do executes fn, retrying with exponential back-off until it succeeds or the
// attempt budget is exhausted. The last error is returned annotated with the
// operation name.
func (r *RetryConfig) Do(operationName string, fn func() error) error {
	var lastErr error
	delay := r.BaseDelay

	sleep := r.sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if attempt < r.MaxAttempts {
			wait := delay
			if r.Jitter {
				wait = time.Duration(float64(delay) * (0.5 + rand.Float64()))
			}
			r.Logger.Warn("[retry] %s failed (attempt %d/%d): %v — retrying in %v",
				operationName, attempt, r.MaxAttempts, lastErr, wait)
			sleep(wait)
			delay *= 2
			if r.MaxDelay > 0 && delay > r.MaxDelay {
				delay = r.MaxDelay
			}
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, r.MaxAttempts, lastErr)
}
