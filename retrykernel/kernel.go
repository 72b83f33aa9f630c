// Package retrykernel provides the bounded-parallelism, timeout and retry
// primitives that provider calls in this repository are run through. No
// provider adapter retries internally; the object store gateway runs its
// own upload and availability retry loops.
package retrykernel

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	xerrors "github.com/livepeer/catalyst-api/errors"
)

// WithTimeout cancels op after d. A cancelled op must not let its result
// observably affect the caller: the context passed to op is what carries
// the deadline, and op is expected to respect ctx.Done().
func WithTimeout[T any](parent context.Context, d time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := op(ctx)
		done <- result{v, err}
	}()

	select {
	case <-ctx.Done():
		var zero T
		return zero, xerrors.New(xerrors.KindTimeout, ctx.Err())
	case r := <-done:
		return r.val, r.err
	}
}

// RetryPolicy controls WithRetry's backoff shape.
type RetryPolicy struct {
	MaxAttempts uint
	BaseDelay   time.Duration
}

// WithRetry invokes op up to policy.MaxAttempts times, sleeping
// policy.BaseDelay*2^(attempt-1) between attempts. Errors are classified
// via errors.Retriable: content_policy and bad_output are never retried
// here, and provider_quota is allowed at most one retry regardless of
// MaxAttempts, per spec.md §4.4.
func WithRetry[T any](ctx context.Context, policy RetryPolicy, op func() (T, error)) (T, error) {
	var result T
	attempt := 0
	quotaRetriesUsed := 0

	operation := func() error {
		attempt++
		v, err := op()
		if err == nil {
			result = v
			return nil
		}

		if !xerrors.Retriable(err) {
			return backoff.Permanent(err)
		}
		if xerrors.IsProviderQuota(err) {
			if quotaRetriesUsed >= 1 {
				return backoff.Permanent(err)
			}
			quotaRetriesUsed++
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.BaseDelay
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = policy.BaseDelay * (1 << 10)
	bo.MaxElapsedTime = 0
	bo.Reset()

	maxAttempts := policy.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 1
	}
	retryable := backoff.WithMaxRetries(bo, uint64(maxAttempts-1))
	retryable = backoff.WithContext(retryable, ctx) //nolint:staticcheck

	if err := backoff.Retry(operation, retryable); err != nil {
		return result, err
	}
	return result, nil
}

// TaskResult pairs a task's index with its outcome, preserving per-task
// ordering regardless of completion order.
type TaskResult[T any] struct {
	Index int
	Value T
	Err   error
}

// BoundedParallel dispatches tasks cooperatively with a concurrency
// ceiling of maxInFlight. It collects both successes and failures and does
// not abort the others on a single failure; callers inspect each
// TaskResult.Err independently.
func BoundedParallel[T any](ctx context.Context, maxInFlight int, tasks []func(ctx context.Context) (T, error)) []TaskResult[T] {
	results := make([]TaskResult[T], len(tasks))
	if len(tasks) == 0 {
		return results
	}
	if maxInFlight <= 0 {
		maxInFlight = 1
	}

	sem := make(chan struct{}, maxInFlight)
	var wg sync.WaitGroup

	for i, task := range tasks {
		i, task := i, task
		wg.Add(1)

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = TaskResult[T]{Index: i, Err: xerrors.New(xerrors.KindCancelled, ctx.Err())}
			wg.Done()
			continue
		}

		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			v, err := task(ctx)
			results[i] = TaskResult[T]{Index: i, Value: v, Err: err}
		}()
	}

	wg.Wait()
	return results
}
