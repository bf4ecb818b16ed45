package exnest

import (
	"time"

	"go.uber.org/zap"
)

// Sleeper is an interface for sleeping between attempts, allowing tests to
// observe delays without waiting them out.
type Sleeper interface {
	Sleep(d time.Duration)
}

// realSleeper implements Sleeper using time.Sleep.
type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// retryPolicy runs an operation up to maxAttempts times with a fixed delay
// between attempts. Streaming calls never go through this policy: a stream
// restarted mid-flight would duplicate or drop already-emitted chunks.
type retryPolicy struct {
	maxAttempts    int
	delay          time.Duration
	retryRateLimit bool
	sleeper        Sleeper
	logger         *zap.Logger
	debug          bool
}

// run executes fn until it succeeds, fails with a non-retryable error, or
// attempts are exhausted. The last failure is surfaced to the caller.
func (p retryPolicy) run(fn func(attempt int) (*Response, error)) (*Response, error) {
	var lastErr error
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		resp, err := fn(attempt)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !isRetryable(err, p.retryRateLimit) {
			return nil, err
		}
		if attempt == p.maxAttempts {
			break
		}

		if p.debug {
			p.logger.Debug("retrying request",
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", p.maxAttempts),
				zap.Duration("delay", p.delay),
				zap.Error(err),
			)
		}
		p.sleeper.Sleep(p.delay)
	}
	return nil, lastErr
}
