package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/barhq/venuestock/internal/repository"
	"github.com/jmoiron/sqlx"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

// CreateDraftOrder inserts the order and all of its lines in one transaction.
func (r *orderRepository) CreateDraftOrder(ctx context.Context, order *domain.DraftOrder) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		orderQuery := `
			INSERT INTO orders (id, venue_id, supplier_id, supplier_key, status, created_at, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		_, err := tx.ExecContext(ctx, orderQuery,
			order.ID,
			order.VenueID,
			order.SupplierID,
			order.SupplierKey(),
			order.Status,
			order.CreatedAt,
			order.CreatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		lineQuery := `
			INSERT INTO order_lines (order_id, product_id, product_name, qty, unit_cost)
			VALUES ($1, $2, $3, $4, $5)
		`
		stmt, err := tx.PrepareContext(ctx, lineQuery)
		if err != nil {
			return fmt.Errorf("failed to prepare line insert: %w", err)
		}
		defer stmt.Close()

		for _, line := range order.Lines {
			if _, err := stmt.ExecContext(ctx,
				order.ID,
				line.ProductID,
				line.ProductName,
				line.Qty,
				line.UnitCost,
			); err != nil {
				return fmt.Errorf("failed to insert order line: %w", err)
			}
		}

		return nil
	})
}

// DeleteOrder removes a draft order and its lines atomically, returning the
// deleted order so the caller can settle its lock.
func (r *orderRepository) DeleteOrder(ctx context.Context, orderID string) (*domain.DraftOrder, error) {
	var deleted domain.DraftOrder

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			SELECT id, venue_id, supplier_id, status, created_at, created_by
			FROM orders
			WHERE id = $1
			FOR UPDATE
		`
		row := tx.QueryRowContext(ctx, query, orderID)
		if err := row.Scan(&deleted.ID, &deleted.VenueID, &deleted.SupplierID,
			&deleted.Status, &deleted.CreatedAt, &deleted.CreatedBy); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return repository.ErrNotFound
			}
			return fmt.Errorf("failed to load order: %w", err)
		}

		if deleted.Status != domain.OrderStatusDraft {
			return repository.ErrOrderNotDraft
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM order_lines WHERE order_id = $1`, orderID); err != nil {
			return fmt.Errorf("failed to delete order lines: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, orderID); err != nil {
			return fmt.Errorf("failed to delete order: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &deleted, nil
}

func (r *orderRepository) GetOrders(ctx context.Context, venueID, status string) ([]domain.DraftOrder, error) {
	query := `
		SELECT id, venue_id, supplier_id, status, created_at, created_by
		FROM orders
		WHERE venue_id = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`

	var orders []domain.DraftOrder
	if err := sqlx.SelectContext(ctx, r.db, &orders, query, venueID, status); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	for i := range orders {
		lines, err := r.orderLines(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Lines = lines
	}

	return orders, nil
}

func (r *orderRepository) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	query := `
		SELECT id, order_id, product_id, product_name, qty, unit_cost
		FROM order_lines
		WHERE order_id = $1
		ORDER BY id
	`

	var lines []domain.OrderLine
	if err := sqlx.SelectContext(ctx, r.db, &lines, query, orderID); err != nil {
		return nil, fmt.Errorf("failed to list order lines: %w", err)
	}

	return lines, nil
}

func (r *orderRepository) CountDraftOrders(ctx context.Context, venueID, supplierKey string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE venue_id = $1 AND supplier_key = $2 AND status = $3
	`

	var count int
	if err := sqlx.GetContext(ctx, r.db, &count, query, venueID, supplierKey, domain.OrderStatusDraft); err != nil {
		return 0, fmt.Errorf("failed to count draft orders: %w", err)
	}

	return count, nil
}

// TryAcquireLock performs a conditional create: the unique (venue_id,
// supplier_key) constraint plus ON CONFLICT DO NOTHING makes the
// check-then-write atomic on the store side.
func (r *orderRepository) TryAcquireLock(ctx context.Context, venueID, supplierKey string) error {
	query := `
		INSERT INTO order_locks (venue_id, supplier_key, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (venue_id, supplier_key) DO NOTHING
	`

	result, err := r.db.ExecContext(ctx, query, venueID, supplierKey, time.Now())
	if err != nil {
		return fmt.Errorf("failed to acquire order lock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read lock insert result: %w", err)
	}
	if affected == 0 {
		return repository.ErrLockHeld
	}

	return nil
}

func (r *orderRepository) GetLock(ctx context.Context, venueID, supplierKey string) (*domain.OrderLock, error) {
	query := `
		SELECT venue_id, supplier_key, created_at
		FROM order_locks
		WHERE venue_id = $1 AND supplier_key = $2
	`

	var lock domain.OrderLock
	if err := sqlx.GetContext(ctx, r.db, &lock, query, venueID, supplierKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load order lock: %w", err)
	}

	return &lock, nil
}

func (r *orderRepository) ReleaseLock(ctx context.Context, venueID, supplierKey string) error {
	query := `DELETE FROM order_locks WHERE venue_id = $1 AND supplier_key = $2`
	if _, err := r.db.ExecContext(ctx, query, venueID, supplierKey); err != nil {
		return fmt.Errorf("failed to release order lock: %w", err)
	}
	return nil
}

// ReleaseLockIfUnchanged is a compare-and-delete: the created_at predicate
// makes sure a lock that was replaced after the caller observed it is never
// deleted out from under its new holder.
func (r *orderRepository) ReleaseLockIfUnchanged(ctx context.Context, venueID, supplierKey string, createdAt time.Time) error {
	query := `
		DELETE FROM order_locks
		WHERE venue_id = $1 AND supplier_key = $2 AND created_at = $3
	`

	result, err := r.db.ExecContext(ctx, query, venueID, supplierKey, createdAt)
	if err != nil {
		return fmt.Errorf("failed to release order lock: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read lock delete result: %w", err)
	}
	if affected == 0 {
		return repository.ErrLockHeld
	}

	return nil
}
