package repository

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrLockHeld is returned by TryAcquireLock when the supplier key is
	// already locked.
	ErrLockHeld = errors.New("order lock already held")

	// ErrOrderNotDraft is returned when an operation requires an order that
	// is still in draft status.
	ErrOrderNotDraft = errors.New("order is not in draft status")
)
