package repository

import (
	"context"
	"time"

	"github.com/barhq/venuestock/internal/domain"
)

// CatalogRepository provides read-only access to the item catalog and
// supplier pricing.
type CatalogRepository interface {
	GetItems(ctx context.Context, venueID, departmentID string) ([]domain.InventoryItem, error)
	GetPriceOptions(ctx context.Context, venueID string) (map[string][]domain.SupplierPriceOption, error)
}

// StockTakeRepository provides the quantity maps of the current stock-take
// cycle.
type StockTakeRepository interface {
	GetLastCounts(ctx context.Context, venueID string) (domain.QuantityMap, error)
	GetReceived(ctx context.Context, venueID string) (domain.QuantityMap, error)
	GetSold(ctx context.Context, venueID string) (domain.QuantityMap, error)
}

// OrderRepository owns draft orders and their supplier locks. The multi-line
// create and the delete are all-or-nothing; the lock create is conditional
// (only if absent).
type OrderRepository interface {
	// CreateDraftOrder writes an order together with all its lines in a
	// single atomic write.
	CreateDraftOrder(ctx context.Context, order *domain.DraftOrder) error

	// DeleteOrder removes an order and its lines atomically. Returns
	// ErrNotFound when the order does not exist and ErrOrderNotDraft when it
	// has left draft status.
	DeleteOrder(ctx context.Context, orderID string) (*domain.DraftOrder, error)

	// GetOrders returns a venue's orders, optionally filtered by status.
	GetOrders(ctx context.Context, venueID, status string) ([]domain.DraftOrder, error)

	// CountDraftOrders counts draft-status orders for a supplier key.
	CountDraftOrders(ctx context.Context, venueID, supplierKey string) (int, error)

	// TryAcquireLock creates the lock record only if absent. Returns
	// ErrLockHeld when another holder already has it.
	TryAcquireLock(ctx context.Context, venueID, supplierKey string) error

	// GetLock returns the lock record, or ErrNotFound when absent.
	GetLock(ctx context.Context, venueID, supplierKey string) (*domain.OrderLock, error)

	// ReleaseLock deletes the lock record. Releasing an absent lock is a
	// no-op.
	ReleaseLock(ctx context.Context, venueID, supplierKey string) error

	// ReleaseLockIfUnchanged deletes the lock only when its creation time
	// still matches the observed one. Returns ErrLockHeld when the lock is
	// gone or has been replaced since the observation.
	ReleaseLockIfUnchanged(ctx context.Context, venueID, supplierKey string, createdAt time.Time) error
}
