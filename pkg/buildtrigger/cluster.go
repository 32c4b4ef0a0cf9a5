package buildtrigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	DefaultAttempts = 5
	DefaultDelay    = 500 * time.Millisecond
)

var errNoBuild = errors.New("no build returned")

// Instantiator starts a build of the build resource namespace/name and
// returns the name of the new build.
type Instantiator interface {
	Instantiate(ctx context.Context, namespace, name string) (string, error)
}

// ExhaustedError is returned once every attempt to start a build failed.
type ExhaustedError struct {
	Namespace string
	Name      string
	Attempts  int
	Err       error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("could not trigger a build of %s/%s after %d attempts: %v", e.Namespace, e.Name, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// ClusterTrigger instantiates a build, retrying with a fixed delay.
type ClusterTrigger struct {
	Instantiator Instantiator
	Attempts     int
	Delay        time.Duration
	Clock        clockwork.Clock
	Logger       *zap.SugaredLogger
}

func NewClusterTrigger(inst Instantiator, attempts int, delay time.Duration, clock clockwork.Clock, logger *zap.SugaredLogger) *ClusterTrigger {
	if attempts < 1 {
		attempts = DefaultAttempts
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClusterTrigger{Instantiator: inst, Attempts: attempts, Delay: delay, Clock: clock, Logger: logger}
}

// Trigger returns the name of the started build. Failed attempts are only
// logged; an ExhaustedError comes back when none succeeded.
func (c *ClusterTrigger) Trigger(ctx context.Context, namespace, name string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", &ExhaustedError{Namespace: namespace, Name: name, Attempts: attempt - 1, Err: ctx.Err()}
			case <-c.Clock.After(c.Delay):
			}
		}
		build, err := c.Instantiator.Instantiate(ctx, namespace, name)
		if err == nil && build == "" {
			err = errNoBuild
		}
		if err == nil {
			c.Logger.Infof("triggered build %s for %s/%s", build, namespace, name)
			return build, nil
		}
		lastErr = err
		c.Logger.Warnf("attempt %d/%d to trigger a build of %s/%s failed: %v", attempt, c.Attempts, namespace, name, err)
	}
	c.Logger.Errorf("giving up triggering a build of %s/%s", namespace, name)
	return "", &ExhaustedError{Namespace: namespace, Name: name, Attempts: c.Attempts, Err: lastErr}
}
