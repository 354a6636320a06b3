package postgres

import (
	"context"
	"fmt"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/jmoiron/sqlx"
)

type stockTakeRepository struct {
	db *DB
}

func NewStockTakeRepository(db *DB) *stockTakeRepository {
	return &stockTakeRepository{db: db}
}

func (r *stockTakeRepository) GetLastCounts(ctx context.Context, venueID string) (domain.QuantityMap, error) {
	return r.quantityMap(ctx, venueID, "count")
}

func (r *stockTakeRepository) GetReceived(ctx context.Context, venueID string) (domain.QuantityMap, error) {
	return r.quantityMap(ctx, venueID, "received")
}

func (r *stockTakeRepository) GetSold(ctx context.Context, venueID string) (domain.QuantityMap, error) {
	return r.quantityMap(ctx, venueID, "sold")
}

// quantityMap loads one kind of quantity for the venue's current stock-take
// cycle. Items with no row simply have no entry, which downstream treats as
// zero.
func (r *stockTakeRepository) quantityMap(ctx context.Context, venueID, kind string) (domain.QuantityMap, error) {
	query := `
		SELECT item_id, qty
		FROM stock_take_quantities
		WHERE venue_id = $1 AND kind = $2
	`

	type qtyRow struct {
		ItemID string  `db:"item_id"`
		Qty    float64 `db:"qty"`
	}

	var rows []qtyRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, venueID, kind); err != nil {
		return nil, fmt.Errorf("failed to load %s quantities: %w", kind, err)
	}

	quantities := make(domain.QuantityMap, len(rows))
	for _, row := range rows {
		quantities[row.ItemID] = row.Qty
	}

	return quantities, nil
}
