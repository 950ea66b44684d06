package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"crewsync-service/internal/domain/entity"
)

// RetryOutcome is the typed result of a bounded retry
type RetryOutcome string

const (
	RetrySucceeded RetryOutcome = "SUCCEEDED"
	// RetryExhausted means every attempt failed with a retryable error
	RetryExhausted RetryOutcome = "EXHAUSTED"
	// RetryAborted means a non-retryable error or cancellation stopped the loop early
	RetryAborted RetryOutcome = "ABORTED"
)

// RetryResult reports what a RetryPolicy run did
type RetryResult struct {
	Outcome  RetryOutcome
	Attempts int
	Err      error
}

// RetryPolicy retries an operation with exponential backoff up to MaxAttempts
type RetryPolicy struct {
	MaxAttempts int
	Initial     time.Duration
	Max         time.Duration
	// OnRetry is called after each failed attempt that will be retried
	OnRetry func(attempt int, err error, wait time.Duration)
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	exp := backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(p.Initial),
		backoff.WithMaxInterval(p.Max),
		backoff.WithMaxElapsedTime(0),
	)
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(attempts-1)), ctx)
}

// Do runs op until it succeeds, fails with a non-retryable error, the context ends
// or the attempts run out.
func (p RetryPolicy) Do(ctx context.Context, op func(ctx context.Context) error) RetryResult {
	var (
		attempts int
		lastErr  error
	)
	operation := func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if !entity.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(attempts, err, wait)
		}
	}

	err := backoff.RetryNotify(operation, p.backOff(ctx), notify)
	switch {
	case err == nil:
		return RetryResult{Outcome: RetrySucceeded, Attempts: attempts}
	case lastErr != nil && !entity.IsRetryable(lastErr):
		return RetryResult{Outcome: RetryAborted, Attempts: attempts, Err: lastErr}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		if lastErr != nil {
			err = errors.Join(err, lastErr)
		}
		return RetryResult{Outcome: RetryAborted, Attempts: attempts, Err: err}
	default:
		return RetryResult{Outcome: RetryExhausted, Attempts: attempts, Err: lastErr}
	}
}
