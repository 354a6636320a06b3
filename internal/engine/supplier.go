package engine

import (
	"math"
	"sort"

	"github.com/barhq/venuestock/internal/domain"
)

// ChooseCheapest selects the cheapest qualifying price option for a product.
//
// Options without a finite price are excluded rather than failing the whole
// selection. Among equal prices, contract options win; beyond that the input
// order is preserved, so selection is reproducible for a fixed input. Returns
// nil when nothing qualifies.
func ChooseCheapest(options []domain.SupplierPriceOption) *domain.SupplierPriceOption {
	qualifying := make([]domain.SupplierPriceOption, 0, len(options))
	for _, opt := range options {
		if math.IsNaN(opt.Price) || math.IsInf(opt.Price, 0) {
			continue
		}
		qualifying = append(qualifying, opt)
	}

	if len(qualifying) == 0 {
		return nil
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		if qualifying[i].Price != qualifying[j].Price {
			return qualifying[i].Price < qualifying[j].Price
		}
		return qualifying[i].IsContract && !qualifying[j].IsContract
	})

	best := qualifying[0]
	return &best
}
