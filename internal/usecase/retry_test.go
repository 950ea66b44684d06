package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"crewsync-service/internal/domain/entity"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestRetryPolicy_SucceedsAfterTransientFailures(t *testing.T) {
	var retried []int
	p := fastRetry(4)
	p.OnRetry = func(attempt int, err error, wait time.Duration) {
		retried = append(retried, attempt)
	}

	calls := 0
	res := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return entity.Unavailable("GetCrewList", errors.New("timeout"))
		}
		return nil
	})
	require.Equal(t, RetrySucceeded, res.Outcome)
	require.Equal(t, 3, res.Attempts)
	require.NoError(t, res.Err)
	require.Equal(t, []int{1, 2}, retried)
}

func TestRetryPolicy_Exhausted(t *testing.T) {
	res := fastRetry(4).Do(context.Background(), func(context.Context) error {
		return entity.Unavailable("GetCrewList", errors.New("connection refused"))
	})
	require.Equal(t, RetryExhausted, res.Outcome)
	require.Equal(t, 4, res.Attempts)
	require.ErrorIs(t, res.Err, entity.ErrSourceUnavailable)
}

func TestRetryPolicy_AuthAbortsImmediately(t *testing.T) {
	res := fastRetry(4).Do(context.Background(), func(context.Context) error {
		return entity.AuthFailure("GetCrewList", errors.New("invalid credentials"))
	})
	require.Equal(t, RetryAborted, res.Outcome)
	require.Equal(t, 1, res.Attempts)
	require.ErrorIs(t, res.Err, entity.ErrAuth)
}

func TestRetryPolicy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 5, Initial: time.Hour, Max: time.Hour}
	p.OnRetry = func(int, error, time.Duration) { cancel() }

	res := p.Do(ctx, func(context.Context) error {
		return entity.Unavailable("GetCrewList", errors.New("timeout"))
	})
	require.Equal(t, RetryAborted, res.Outcome)
	require.Equal(t, 1, res.Attempts)
	require.ErrorIs(t, res.Err, context.Canceled)
	require.ErrorIs(t, res.Err, entity.ErrSourceUnavailable)
}

func TestRetryPolicy_SingleAttempt(t *testing.T) {
	calls := 0
	res := RetryPolicy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return entity.Unavailable("probe", errors.New("timeout"))
	})
	require.Equal(t, RetryExhausted, res.Outcome)
	require.Equal(t, 1, calls)
}
