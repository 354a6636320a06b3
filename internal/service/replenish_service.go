package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/barhq/venuestock/internal/engine"
	"github.com/barhq/venuestock/internal/repository"
	"github.com/rs/zerolog/log"
)

// ReplenishService builds per-item reorder suggestions and assigns each line
// the cheapest qualifying supplier. Output is grouped by supplier key, ready
// for the materializer.
type ReplenishService struct {
	catalog repository.CatalogRepository
	stock   repository.StockTakeRepository
}

func NewReplenishService(catalog repository.CatalogRepository, stock repository.StockTakeRepository) *ReplenishService {
	return &ReplenishService{
		catalog: catalog,
		stock:   stock,
	}
}

// BuildSuggestions computes suggested lines for every item that needs
// reordering, grouped by supplier key. Items with no resolved supplier land
// under the unassigned key.
func (s *ReplenishService) BuildSuggestions(
	ctx context.Context,
	venueID, departmentID string,
	roundToPack bool,
) (map[string][]domain.SuggestedLine, error) {
	if venueID == "" {
		return nil, ErrMissingVenue
	}

	items, err := s.catalog.GetItems(ctx, venueID, departmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	priceOptions, err := s.catalog.GetPriceOptions(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load supplier prices: %w", err)
	}
	lastCounts, err := s.stock.GetLastCounts(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load counts: %w", err)
	}
	received, err := s.stock.GetReceived(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load receipts: %w", err)
	}
	sold, err := s.stock.GetSold(ctx, venueID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	grouped := make(map[string][]domain.SuggestedLine)
	suggested := 0

	for _, item := range items {
		onHand := engine.TheoreticalOnHand(item.ID, lastCounts, received, sold)

		result := engine.ComputeSuggestion(domain.SuggestionContext{
			Par:           item.Par,
			OnHand:        &onHand,
			PackSize:      item.PackSize,
			MOQ:           item.MOQ,
			AvgDailySales: item.AvgDailySales,
			LeadTimeDays:  item.LeadTimeDays,
			RoundToPack:   roundToPack,
		})
		if result.SuggestedQty <= 0 {
			continue
		}

		line := domain.SuggestedLine{
			ProductID:    item.ID,
			ProductName:  item.Name,
			Qty:          result.SuggestedQty,
			PackSize:     item.PackSize,
			NeedsPar:     item.Par == nil,
			DepartmentID: item.DepartmentID,
			Reason:       suggestionReason(result),
		}

		if best := engine.ChooseCheapest(priceOptions[item.ID]); best != nil {
			line.SupplierID = best.SupplierID
			line.SupplierName = best.SupplierName
			price := best.Price
			line.UnitCost = &price
		} else {
			line.NeedsSupplier = true
		}

		key := domain.SupplierKey(line.SupplierID)
		grouped[key] = append(grouped[key], line)
		suggested++
	}

	log.Info().
		Str("venue_id", venueID).
		Int("items", len(items)).
		Int("suggested", suggested).
		Int("suppliers", len(grouped)).
		Msg("built reorder suggestions")

	return grouped, nil
}

func suggestionReason(result domain.SuggestionResult) string {
	if len(result.Notes) > 0 {
		return strings.Join(result.Notes, "; ")
	}
	if result.BaseDeficit > 0 {
		return "below par"
	}
	return ""
}
