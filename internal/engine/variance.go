package engine

import (
	"math"

	"github.com/barhq/venuestock/internal/domain"
)

// ComputeVariance builds a variance report for a venue's items against the
// last physical count plus receipts minus sales.
//
// Department filtering excludes items before any computation, so filtered-out
// items never contribute to totals. Non-finite quantities are coerced to zero
// rather than poisoning the totals. Rows with a delta of exactly zero are
// omitted from both lists.
func ComputeVariance(
	venueID string,
	items []domain.InventoryItem,
	lastCounts, received, sold domain.QuantityMap,
	departmentID string,
) domain.VarianceReport {
	report := domain.VarianceReport{
		Scope: domain.VarianceScope{
			VenueID:      venueID,
			DepartmentID: departmentID,
		},
		Shortages: []domain.VarianceRow{},
		Excesses:  []domain.VarianceRow{},
	}

	for _, item := range items {
		if departmentID != "" && item.DepartmentID != departmentID {
			continue
		}

		onHand := TheoreticalOnHand(item.ID, lastCounts, received, sold)

		var par float64
		if item.Par != nil {
			par = sanitize(*item.Par)
		}

		delta := onHand - par
		if delta == 0 {
			continue
		}

		row := domain.VarianceRow{
			ItemID:            item.ID,
			Name:              item.Name,
			TheoreticalOnHand: onHand,
			DeltaVsPar:        delta,
			ValueImpact:       math.Abs(delta) * sanitize(item.UnitCost),
		}

		if delta < 0 {
			report.Shortages = append(report.Shortages, row)
			report.TotalShortageValue += row.ValueImpact
		} else {
			report.Excesses = append(report.Excesses, row)
			report.TotalExcessValue += row.ValueImpact
		}
	}

	return report
}

// TheoreticalOnHand is the expected stock level from the last physical count
// plus receipts minus sales, independent of any new count. Missing map
// entries mean zero.
func TheoreticalOnHand(itemID string, lastCounts, received, sold domain.QuantityMap) float64 {
	return sanitize(lastCounts[itemID]) + sanitize(received[itemID]) - sanitize(sold[itemID])
}

// sanitize coerces NaN and infinities to zero.
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
