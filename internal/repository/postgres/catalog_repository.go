package postgres

import (
	"context"
	"fmt"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/jmoiron/sqlx"
)

type catalogRepository struct {
	db *DB
}

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) GetItems(ctx context.Context, venueID, departmentID string) ([]domain.InventoryItem, error) {
	query := `
		SELECT id, name, department_id, COALESCE(unit_cost, 0) AS unit_cost,
		       par, pack_size, moq, avg_daily_sales, lead_time_days
		FROM inventory_items
		WHERE venue_id = $1
		  AND ($2 = '' OR department_id = $2)
		ORDER BY name
	`

	var items []domain.InventoryItem
	if err := sqlx.SelectContext(ctx, r.db, &items, query, venueID, departmentID); err != nil {
		return nil, fmt.Errorf("failed to list inventory items: %w", err)
	}

	return items, nil
}

func (r *catalogRepository) GetPriceOptions(ctx context.Context, venueID string) (map[string][]domain.SupplierPriceOption, error) {
	query := `
		SELECT p.product_id, p.supplier_id, COALESCE(s.name, '') AS supplier_name,
		       p.price, p.is_contract
		FROM supplier_prices p
		LEFT JOIN suppliers s ON s.id = p.supplier_id
		WHERE p.venue_id = $1
		ORDER BY p.product_id, p.price
	`

	type priceRow struct {
		ProductID string `db:"product_id"`
		domain.SupplierPriceOption
	}

	var rows []priceRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, venueID); err != nil {
		return nil, fmt.Errorf("failed to list supplier prices: %w", err)
	}

	options := make(map[string][]domain.SupplierPriceOption, len(rows))
	for _, row := range rows {
		options[row.ProductID] = append(options[row.ProductID], row.SupplierPriceOption)
	}

	return options, nil
}
