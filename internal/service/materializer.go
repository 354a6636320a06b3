package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/barhq/venuestock/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ErrMissingVenue is a validation failure: materialization always needs a
// venue. It is reported immediately and never retried.
var ErrMissingVenue = errors.New("venue id is required")

// staleLockAge is how old a lock must be before a no-draft lock is treated
// as leaked and reclaimed. Fresh locks belong to in-flight creations and are
// never stolen.
const staleLockAge = 5 * time.Minute

const materializeConcurrency = 4

// SkippedSupplier records a supplier key whose draft creation was guarded by
// an existing open draft. This is a normal outcome, not an error.
type SkippedSupplier struct {
	SupplierKey string `json:"supplier_key"`
	Reason      string `json:"reason"`
}

// FailedSupplier records a supplier key whose write failed after retries.
type FailedSupplier struct {
	SupplierKey string `json:"supplier_key"`
	Error       string `json:"error"`
}

// BatchResult is the partial-success outcome of one materialization batch.
type BatchResult struct {
	Created []domain.DraftOrder `json:"created"`
	Skipped []SkippedSupplier   `json:"skipped"`
	Failed  []FailedSupplier    `json:"failed"`
}

// Materializer turns suggested lines into draft orders, one per supplier
// key, guarded by the per-supplier order lock.
type Materializer struct {
	orders repository.OrderRepository
	retry  RetryPolicy
}

func NewMaterializer(orders repository.OrderRepository, retry RetryPolicy) *Materializer {
	return &Materializer{
		orders: orders,
		retry:  retry,
	}
}

// Materialize creates one draft order per supplier key. Supplier keys with
// an existing open draft are skipped, not failed; a failure for one key
// never blocks the others.
func (m *Materializer) Materialize(
	ctx context.Context,
	venueID, createdBy string,
	linesByKey map[string][]domain.SuggestedLine,
) (*BatchResult, error) {
	if venueID == "" {
		return nil, ErrMissingVenue
	}

	keys := make([]string, 0, len(linesByKey))
	for key, lines := range linesByKey {
		if len(lines) == 0 {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var (
		mu     sync.Mutex
		result BatchResult
	)
	result.Created = []domain.DraftOrder{}
	result.Skipped = []SkippedSupplier{}
	result.Failed = []FailedSupplier{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(materializeConcurrency)

	for _, key := range keys {
		supplierKey := key
		lines := linesByKey[key]

		g.Go(func() error {
			order, err := m.materializeOne(gctx, venueID, supplierKey, createdBy, lines)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, repository.ErrLockHeld):
				result.Skipped = append(result.Skipped, SkippedSupplier{
					SupplierKey: supplierKey,
					Reason:      "open draft order exists",
				})
			case err != nil:
				log.Error().Err(err).
					Str("venue_id", venueID).
					Str("supplier_key", supplierKey).
					Msg("failed to materialize draft order")
				result.Failed = append(result.Failed, FailedSupplier{
					SupplierKey: supplierKey,
					Error:       err.Error(),
				})
			default:
				result.Created = append(result.Created, *order)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &result, nil
}

func (m *Materializer) materializeOne(
	ctx context.Context,
	venueID, supplierKey, createdBy string,
	lines []domain.SuggestedLine,
) (*domain.DraftOrder, error) {
	if err := m.acquire(ctx, venueID, supplierKey); err != nil {
		return nil, err
	}

	order := buildDraftOrder(venueID, supplierKey, createdBy, lines)

	err := withRetry(ctx, m.retry, func(ctx context.Context) error {
		return m.orders.CreateDraftOrder(ctx, order)
	})
	if err != nil {
		// The draft never landed, so the lock must not outlive this attempt.
		if relErr := m.orders.ReleaseLock(ctx, venueID, supplierKey); relErr != nil {
			log.Warn().Err(relErr).
				Str("supplier_key", supplierKey).
				Msg("failed to release lock after create failure")
		}
		return nil, fmt.Errorf("failed to create draft order: %w", err)
	}

	return order, nil
}

// acquire takes the supplier lock via the store's conditional create. When
// the lock is already held it re-derives validity from the live draft query:
// an old lock with no draft behind it is a leak from a crashed run and is
// reclaimed.
func (m *Materializer) acquire(ctx context.Context, venueID, supplierKey string) error {
	err := withRetry(ctx, m.retry, func(ctx context.Context) error {
		return m.orders.TryAcquireLock(ctx, venueID, supplierKey)
	})
	if !errors.Is(err, repository.ErrLockHeld) {
		return err
	}

	var lock *domain.OrderLock
	err = withRetry(ctx, m.retry, func(ctx context.Context) error {
		var opErr error
		lock, opErr = m.orders.GetLock(ctx, venueID, supplierKey)
		return opErr
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Holder vanished between the insert and the read; one more try.
			return m.orders.TryAcquireLock(ctx, venueID, supplierKey)
		}
		return fmt.Errorf("failed to inspect order lock: %w", err)
	}
	if time.Since(lock.CreatedAt) < staleLockAge {
		return repository.ErrLockHeld
	}

	var drafts int
	err = withRetry(ctx, m.retry, func(ctx context.Context) error {
		var opErr error
		drafts, opErr = m.orders.CountDraftOrders(ctx, venueID, supplierKey)
		return opErr
	})
	if err != nil {
		return fmt.Errorf("failed to count drafts behind lock: %w", err)
	}
	if drafts > 0 {
		return repository.ErrLockHeld
	}

	log.Warn().
		Str("venue_id", venueID).
		Str("supplier_key", supplierKey).
		Msg("reclaiming stale order lock with no open draft")

	// Compare-and-delete against the observed timestamp: when a rival
	// reclaimed first, its fresh lock stays untouched and this attempt is
	// guarded.
	if relErr := m.orders.ReleaseLockIfUnchanged(ctx, venueID, supplierKey, lock.CreatedAt); relErr != nil {
		if errors.Is(relErr, repository.ErrLockHeld) {
			return repository.ErrLockHeld
		}
		return fmt.Errorf("failed to reclaim stale lock: %w", relErr)
	}
	return m.orders.TryAcquireLock(ctx, venueID, supplierKey)
}

// Orders lists a venue's orders, optionally filtered by status label.
func (m *Materializer) Orders(ctx context.Context, venueID, status string) ([]domain.DraftOrder, error) {
	if venueID == "" {
		return nil, ErrMissingVenue
	}
	if status != "" {
		parsed, ok := domain.ParseOrderStatus(status)
		if !ok {
			return nil, fmt.Errorf("unknown order status %q", status)
		}
		status = parsed
	}
	return m.orders.GetOrders(ctx, venueID, status)
}

// DeleteDraftOrder removes a draft order and releases the supplier lock when
// no other draft remains for the key. Lock removal is best-effort; a leaked
// lock self-heals on the next materialization.
func (m *Materializer) DeleteDraftOrder(ctx context.Context, orderID string) error {
	if orderID == "" {
		return errors.New("order id is required")
	}

	var deleted *domain.DraftOrder
	err := withRetry(ctx, m.retry, func(ctx context.Context) error {
		var opErr error
		deleted, opErr = m.orders.DeleteOrder(ctx, orderID)
		return opErr
	})
	if err != nil {
		return err
	}

	supplierKey := deleted.SupplierKey()
	remaining, err := m.orders.CountDraftOrders(ctx, deleted.VenueID, supplierKey)
	if err != nil {
		log.Warn().Err(err).
			Str("supplier_key", supplierKey).
			Msg("could not count remaining drafts; leaving lock in place")
		return nil
	}
	if remaining > 0 {
		return nil
	}

	if err := m.orders.ReleaseLock(ctx, deleted.VenueID, supplierKey); err != nil {
		log.Warn().Err(err).
			Str("supplier_key", supplierKey).
			Msg("failed to release order lock; will self-heal on next materialization")
	}
	return nil
}

func buildDraftOrder(venueID, supplierKey, createdBy string, lines []domain.SuggestedLine) *domain.DraftOrder {
	var supplierID *string
	if supplierKey != domain.UnassignedSupplierKey {
		id := supplierKey
		supplierID = &id
	}

	order := &domain.DraftOrder{
		ID:         uuid.NewString(),
		VenueID:    venueID,
		SupplierID: supplierID,
		Status:     domain.OrderStatusDraft,
		CreatedAt:  time.Now().UTC(),
		CreatedBy:  createdBy,
		Lines:      make([]domain.OrderLine, 0, len(lines)),
	}

	for _, line := range lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Qty:         line.Qty,
			UnitCost:    line.UnitCost,
		})
	}

	return order
}
