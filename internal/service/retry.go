package service

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"
	"time"

	"github.com/lib/pq"
)

// RetryPolicy bounds the retry loop around store writes: attempts, a base
// delay that doubles per attempt, and a cap on the delay.
type RetryPolicy struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// DefaultRetryPolicy matches the engine defaults in config.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:  4,
		BaseDelay: 100 * time.Millisecond,
		MaxDelay:  2 * time.Second,
	}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.Attempts < 1 {
		p.Attempts = 1
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 100 * time.Millisecond
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	return p
}

// withRetry runs op, retrying transient failures with exponential backoff.
// Non-transient errors abort immediately.
func withRetry(ctx context.Context, policy RetryPolicy, op func(ctx context.Context) error) error {
	policy = policy.normalized()

	var err error
	delay := policy.BaseDelay
	for attempt := 0; attempt < policy.Attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > policy.MaxDelay {
				delay = policy.MaxDelay
			}
		}

		err = op(ctx)
		if err == nil || !isTransient(err) {
			return err
		}
	}

	return err
}

// Postgres error classes/codes that signal a retryable condition:
// connection failures, serialization conflicts, deadlocks and admission
// rejections.
var transientPQCodes = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"57P03": true, // cannot_connect_now
	"53300": true, // too_many_connections
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		code := string(pqErr.Code)
		if transientPQCodes[code] {
			return true
		}
		// Class 08: connection exceptions.
		if len(code) >= 2 && code[:2] == "08" {
			return true
		}
	}

	return false
}
