package llm

import (
	"context"
	"time"
)

// jitterFraction bounds the random extra delay as a fraction of the base step.
const jitterFraction = 0.25

// Backoff returns base*2^(attempt-1) plus up to 25% jitter, with r in [0,1).
func Backoff(base time.Duration, attempt int, r float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base << (attempt - 1)
	return d + time.Duration(float64(d)*jitterFraction*r)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// ContextSleep is the production Sleeper.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
