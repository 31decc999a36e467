// internal/retry/retry.go
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	custom_errors "starsync/internal/errors"
)

const (
	// DefaultMaxAttempts is the total number of tries, including the first one.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the wait before the second attempt. Each further wait doubles.
	DefaultBaseDelay = time.Second
)

// Policy describes how an operation is retried: a bounded number of attempts
// with exponential backoff, skipping errors the Retryable predicate rejects.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// Retryable reports whether err is worth another attempt. Nil retries everything.
	Retryable func(err error) bool
	// OnRetry is called before each wait with the failed attempt number (1-based).
	OnRetry func(err error, attempt int, delay time.Duration)

	timer backoff.Timer
}

// Default retries up to 3 times with 1s, 2s waits and never retries auth failures.
func Default() Policy {
	return Policy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Retryable:   NotAuthError,
	}
}

// NotAuthError is a Retryable predicate rejecting credential failures.
func NotAuthError(err error) bool {
	return !custom_errors.IsAuthError(err)
}

// Do runs op until it succeeds, returns a non-retryable error, or the attempts
// run out. The last error is returned unchanged.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, delay time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(err, attempt, delay)
		}
	}
	return backoff.RetryNotifyWithTimer(operation, p.backOff(ctx), notify, p.timer)
}

// Value is Do for operations that produce a result.
func Value[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := op(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (p Policy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}

	exp := &backoff.ExponentialBackOff{
		InitialInterval:     base,
		RandomizationFactor: 0,
		Multiplier:          2,
		MaxInterval:         base << uint(attempts),
		MaxElapsedTime:      0,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	exp.Reset()

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}
