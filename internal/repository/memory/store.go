package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/barhq/venuestock/internal/repository"
)

// Store is a mutex-guarded in-memory implementation of the repository
// interfaces, used for dev mode and tests. Lock acquisition is atomic under
// the store mutex, mirroring the conditional insert the Postgres
// implementation relies on.
type Store struct {
	mu           sync.Mutex
	items        map[string][]domain.InventoryItem             // venueID -> items
	priceOptions map[string]map[string][]domain.SupplierPriceOption // venueID -> productID -> options
	lastCounts   map[string]domain.QuantityMap
	received     map[string]domain.QuantityMap
	sold         map[string]domain.QuantityMap
	ordersByID   map[string]domain.DraftOrder
	locks        map[lockKey]time.Time
}

type lockKey struct {
	venueID     string
	supplierKey string
}

func NewStore() *Store {
	return &Store{
		items:        map[string][]domain.InventoryItem{},
		priceOptions: map[string]map[string][]domain.SupplierPriceOption{},
		lastCounts:   map[string]domain.QuantityMap{},
		received:     map[string]domain.QuantityMap{},
		sold:         map[string]domain.QuantityMap{},
		ordersByID:   map[string]domain.DraftOrder{},
		locks:        map[lockKey]time.Time{},
	}
}

// SeedCatalog replaces a venue's items and price options.
func (s *Store) SeedCatalog(venueID string, items []domain.InventoryItem, options map[string][]domain.SupplierPriceOption) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[venueID] = items
	s.priceOptions[venueID] = options
}

// SeedStockTake replaces a venue's quantity maps.
func (s *Store) SeedStockTake(venueID string, lastCounts, received, sold domain.QuantityMap) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastCounts[venueID] = lastCounts
	s.received[venueID] = received
	s.sold[venueID] = sold
}

func (s *Store) GetItems(ctx context.Context, venueID, departmentID string) ([]domain.InventoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]domain.InventoryItem, 0, len(s.items[venueID]))
	for _, item := range s.items[venueID] {
		if departmentID != "" && item.DepartmentID != departmentID {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Store) GetPriceOptions(ctx context.Context, venueID string) (map[string][]domain.SupplierPriceOption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	options := make(map[string][]domain.SupplierPriceOption, len(s.priceOptions[venueID]))
	for productID, opts := range s.priceOptions[venueID] {
		options[productID] = append([]domain.SupplierPriceOption(nil), opts...)
	}
	return options, nil
}

func (s *Store) GetLastCounts(ctx context.Context, venueID string) (domain.QuantityMap, error) {
	return s.quantityMap(s.lastCounts, venueID), nil
}

func (s *Store) GetReceived(ctx context.Context, venueID string) (domain.QuantityMap, error) {
	return s.quantityMap(s.received, venueID), nil
}

func (s *Store) GetSold(ctx context.Context, venueID string) (domain.QuantityMap, error) {
	return s.quantityMap(s.sold, venueID), nil
}

func (s *Store) quantityMap(source map[string]domain.QuantityMap, venueID string) domain.QuantityMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	quantities := make(domain.QuantityMap, len(source[venueID]))
	for itemID, qty := range source[venueID] {
		quantities[itemID] = qty
	}
	return quantities
}

func (s *Store) CreateDraftOrder(ctx context.Context, order *domain.DraftOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *order
	stored.Lines = append([]domain.OrderLine(nil), order.Lines...)
	s.ordersByID[order.ID] = stored
	return nil
}

func (s *Store) DeleteOrder(ctx context.Context, orderID string) (*domain.DraftOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if order.Status != domain.OrderStatusDraft {
		return nil, repository.ErrOrderNotDraft
	}

	delete(s.ordersByID, orderID)
	return &order, nil
}

func (s *Store) GetOrders(ctx context.Context, venueID, status string) ([]domain.DraftOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]domain.DraftOrder, 0)
	for _, order := range s.ordersByID {
		if order.VenueID != venueID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *Store) CountDraftOrders(ctx context.Context, venueID, supplierKey string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, order := range s.ordersByID {
		if order.VenueID == venueID && order.Status == domain.OrderStatusDraft && order.SupplierKey() == supplierKey {
			count++
		}
	}
	return count, nil
}

func (s *Store) TryAcquireLock(ctx context.Context, venueID, supplierKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lockKey{venueID: venueID, supplierKey: supplierKey}
	if _, held := s.locks[key]; held {
		return repository.ErrLockHeld
	}
	s.locks[key] = time.Now()
	return nil
}

func (s *Store) GetLock(ctx context.Context, venueID, supplierKey string) (*domain.OrderLock, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	createdAt, held := s.locks[lockKey{venueID: venueID, supplierKey: supplierKey}]
	if !held {
		return nil, repository.ErrNotFound
	}
	return &domain.OrderLock{
		VenueID:     venueID,
		SupplierKey: supplierKey,
		CreatedAt:   createdAt,
	}, nil
}

func (s *Store) ReleaseLock(ctx context.Context, venueID, supplierKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, lockKey{venueID: venueID, supplierKey: supplierKey})
	return nil
}

func (s *Store) ReleaseLockIfUnchanged(ctx context.Context, venueID, supplierKey string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lockKey{venueID: venueID, supplierKey: supplierKey}
	current, held := s.locks[key]
	if !held || !current.Equal(createdAt) {
		return repository.ErrLockHeld
	}
	delete(s.locks, key)
	return nil
}

// SetOrderStatus moves an order through its lifecycle, enforcing the
// draft → submitted → received / draft → cancelled transitions.
func (s *Store) SetOrderStatus(ctx context.Context, orderID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.ordersByID[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	if !domain.CanTransition(order.Status, status) {
		return fmt.Errorf("cannot move order from %s to %s", order.Status, status)
	}
	order.Status = status
	s.ordersByID[orderID] = order
	return nil
}

// BackdateLock rewinds a lock's creation time. Test helper for exercising
// stale-lock recovery.
func (s *Store) BackdateLock(venueID, supplierKey string, age time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := lockKey{venueID: venueID, supplierKey: supplierKey}
	if createdAt, held := s.locks[key]; held {
		s.locks[key] = createdAt.Add(-age)
	}
}

// HoldsLock reports whether a lock record exists. Test helper.
func (s *Store) HoldsLock(venueID, supplierKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, held := s.locks[lockKey{venueID: venueID, supplierKey: supplierKey}]
	return held
}
