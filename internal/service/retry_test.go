package service

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(context.DeadlineExceeded))
	assert.True(t, isTransient(&net.DNSError{IsTimeout: true}))
	assert.True(t, isTransient(&pq.Error{Code: "40001"}))
	assert.True(t, isTransient(&pq.Error{Code: "08006"}))
	assert.True(t, isTransient(&pq.Error{Code: "57P03"}))

	assert.False(t, isTransient(nil))
	assert.False(t, isTransient(errors.New("constraint violation")))
	assert.False(t, isTransient(&pq.Error{Code: "23505"}))
}

func TestWithRetryEventuallySucceeds(t *testing.T) {
	policy := RetryPolicy{Attempts: 4, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}

	calls := 0
	err := withRetry(context.Background(), policy, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return &pq.Error{Code: "40001"}
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhaustsAttempts(t *testing.T) {
	policy := RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	calls := 0
	err := withRetry(context.Background(), policy, func(ctx context.Context) error {
		calls++
		return &pq.Error{Code: "08001"}
	})

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryDoesNotRetryPermanentErrors(t *testing.T) {
	policy := RetryPolicy{Attempts: 5, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	permanent := errors.New("validation failed")
	calls := 0
	err := withRetry(context.Background(), policy, func(ctx context.Context) error {
		calls++
		return permanent
	})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestWithRetryHonoursContextCancellation(t *testing.T) {
	policy := RetryPolicy{Attempts: 10, BaseDelay: 50 * time.Millisecond, MaxDelay: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := withRetry(ctx, policy, func(ctx context.Context) error {
		calls++
		return &pq.Error{Code: "40001"}
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
