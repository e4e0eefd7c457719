package resilience

import (
	"context"
	"math/rand"
	"time"
)

// RetryPolicy bounds Retry. Jitter is a fraction of the delay (0.2 == 20%).
type RetryPolicy struct {
	Attempts int
	Base     time.Duration
	Jitter   float64
}

// Backoff returns an exponential backoff duration for the provided attempt.
func Backoff(base time.Duration, attempt int, jitterPct float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if jitterPct <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * float64(d) * jitterPct
	return d + time.Duration(delta)
}

// Retry calls fn until it succeeds, the attempts run out, or ctx is done. It
// returns the last error from fn, or the context error when cancelled while
// waiting.
func Retry(ctx context.Context, p RetryPolicy, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		timer := time.NewTimer(Backoff(p.Base, attempt, p.Jitter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return err
}
