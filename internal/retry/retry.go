// Package retry provides bounded exponential backoff for model service calls.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// Policy bounds the retry behavior of an Executor.
type Policy struct {
	// MaxRetries is the number of re-attempts after the first failure.
	MaxRetries int
	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration
	// MaxDelay caps the computed backoff delay.
	MaxDelay time.Duration
	// JitterFraction scales the random jitter added to each delay (0..1).
	JitterFraction float64
}

// DefaultPolicy returns the retry policy used for model service calls.
func DefaultPolicy() Policy {
	return Policy{
		MaxRetries:     3,
		BaseDelay:      time.Second,
		MaxDelay:       30 * time.Second,
		JitterFraction: 0.25,
	}
}

// Validate checks the policy for usable values.
func (p Policy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("retry policy: max retries must be non-negative")
	}
	if p.BaseDelay < 0 || p.MaxDelay < 0 {
		return fmt.Errorf("retry policy: delays must be non-negative")
	}
	if p.JitterFraction < 0 || p.JitterFraction > 1 {
		return fmt.Errorf("retry policy: jitter fraction must be in [0,1]")
	}
	return nil
}

// OnRetryFunc observes each scheduled retry before its backoff sleep.
type OnRetryFunc func(attempt int, delay time.Duration, err error)

// Executor runs operations under a Policy. The zero value is not usable;
// construct with New.
type Executor struct {
	policy  Policy
	onRetry OnRetryFunc

	// sleep and random are injectable for tests.
	sleep  func(ctx context.Context, d time.Duration) error
	random func() float64
}

// New creates an Executor for the given policy.
func New(policy Policy) *Executor {
	return &Executor{
		policy: policy,
		sleep:  sleepCtx,
		random: rand.Float64,
	}
}

// WithOnRetry sets the observability hook invoked before each backoff sleep.
func (e *Executor) WithOnRetry(fn OnRetryFunc) *Executor {
	e.onRetry = fn
	return e
}

// Do runs op until it succeeds, the retry budget is exhausted, retryable
// rejects the error, or the context is cancelled. The original operation
// error is returned unchanged so its classification survives; context
// cancellation is returned as ctx.Err() and is never mistaken for an
// operation failure.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error, retryable func(error) bool) error {
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt > e.policy.MaxRetries || retryable == nil || !retryable(err) {
			return err
		}

		delay := e.backoff(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, delay, err)
		}

		// Cancellation is checked before and after the sleep so a flag
		// flipped mid-backoff never triggers another attempt.
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if cerr := e.sleep(ctx, delay); cerr != nil {
			return cerr
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
	}
}

// backoff computes min(maxDelay, baseDelay * 2^(attempt-1) * (1 + jitter*random)).
func (e *Executor) backoff(attempt int) time.Duration {
	base := float64(e.policy.BaseDelay)
	for i := 1; i < attempt; i++ {
		base *= 2
		if time.Duration(base) >= e.policy.MaxDelay {
			break
		}
	}
	jittered := base * (1 + e.policy.JitterFraction*e.random())
	if d := time.Duration(jittered); d < e.policy.MaxDelay {
		return d
	}
	return e.policy.MaxDelay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
