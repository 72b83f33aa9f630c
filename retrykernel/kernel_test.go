package retrykernel

import (
	"context"
	"errors"
	"testing"
	"time"

	xerrors "github.com/livepeer/catalyst-api/errors"
	"github.com/stretchr/testify/require"
)

func TestWithTimeoutSuccess(t *testing.T) {
	got, err := WithTimeout(context.Background(), time.Second, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, got)
}

func TestWithTimeoutExpires(t *testing.T) {
	_, err := WithTimeout(context.Background(), 10*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.Error(t, err)
	require.True(t, xerrors.IsTimeout(err))
}

func TestWithRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	got, err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}, func() (int, error) {
		attempts++
		if attempts < 3 {
			return 0, xerrors.New(xerrors.KindProviderTransient, errors.New("flaky"))
		}
		return 7, nil
	})
	require.NoError(t, err)
	require.Equal(t, 7, got)
	require.Equal(t, 3, attempts)
}

func TestWithRetryNeverRetriesBadOutput(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 5, BaseDelay: time.Millisecond}, func() (int, error) {
		attempts++
		return 0, xerrors.New(xerrors.KindBadOutput, errors.New("nope"))
	})
	require.Error(t, err)
	require.Equal(t, 1, attempts)
	require.True(t, xerrors.IsBadOutput(err))
}

func TestWithRetryQuotaRetriedAtMostOnce(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 10, BaseDelay: time.Millisecond}, func() (int, error) {
		attempts++
		return 0, xerrors.New(xerrors.KindProviderQuota, errors.New("quota"))
	})
	require.Error(t, err)
	require.Equal(t, 2, attempts)
	require.True(t, xerrors.IsProviderQuota(err))
}

func TestWithRetryExhaustsMaxAttempts(t *testing.T) {
	attempts := 0
	_, err := WithRetry(context.Background(), RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond}, func() (int, error) {
		attempts++
		return 0, xerrors.New(xerrors.KindProviderTransient, errors.New("always fails"))
	})
	require.Error(t, err)
	require.Equal(t, 3, attempts)
}

func TestBoundedParallelPreservesOrderAndBound(t *testing.T) {
	const n = 10
	const maxInFlight = 2

	var inFlight, maxObserved int32
	var mu = make(chan struct{}, 1)
	mu <- struct{}{}

	tasks := make([]func(ctx context.Context) (int, error), n)
	for i := 0; i < n; i++ {
		i := i
		tasks[i] = func(ctx context.Context) (int, error) {
			<-mu
			inFlight++
			if inFlight > maxObserved {
				maxObserved = inFlight
			}
			mu <- struct{}{}

			time.Sleep(5 * time.Millisecond)

			<-mu
			inFlight--
			mu <- struct{}{}
			return i * i, nil
		}
	}

	results := BoundedParallel(context.Background(), maxInFlight, tasks)
	require.Len(t, results, n)
	for i, r := range results {
		require.Equal(t, i, r.Index)
		require.NoError(t, r.Err)
		require.Equal(t, i*i, r.Value)
	}
	require.LessOrEqual(t, int(maxObserved), maxInFlight)
}

func TestBoundedParallelHandlesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []func(ctx context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 1, nil },
	}
	// With the context already cancelled, the semaphore send races against
	// ctx.Done(); either way exactly one result is recorded.
	results := BoundedParallel(ctx, 1, tasks)
	require.Len(t, results, 1)
}

func TestBoundedParallelEmpty(t *testing.T) {
	results := BoundedParallel[int](context.Background(), 4, nil)
	require.Empty(t, results)
}
