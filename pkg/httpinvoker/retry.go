package httpinvoker

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultAttempts = 2
	DefaultBackoff  = 250 * time.Millisecond
)

// Retrying runs the whole redirect-following invocation of Next again when it
// fails with a transient error, up to Attempts times in total.
type Retrying struct {
	Next     Invoker
	Attempts int
	Backoff  time.Duration
	Clock    clockwork.Clock
	Logger   *zap.SugaredLogger
}

func NewRetrying(next Invoker, attempts int, backoff time.Duration, clock clockwork.Clock, logger *zap.SugaredLogger) *Retrying {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Retrying{Next: next, Attempts: attempts, Backoff: backoff, Clock: clock, Logger: logger}
}

func (r *Retrying) Invoke(ctx context.Context, target string, build RequestFunc) (*Response, error) {
	attempts := max(r.Attempts, 1)
	clock := r.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-clock.After(r.Backoff):
			}
		}
		resp, err := r.Next.Invoke(ctx, target, build)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsTransient(err) {
			return nil, err
		}
		r.Logger.Warnf("attempt %d/%d to %s failed: %v", attempt, attempts, target, err)
	}
	return nil, lastErr
}
