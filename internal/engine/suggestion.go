package engine

import (
	"math"

	"github.com/barhq/venuestock/internal/domain"
)

// ComputeSuggestion derives a reorder quantity for one item from its par
// level, on-hand quantity and supplier constraints.
//
// Nil or non-finite inputs are treated as unknown, not zero; the exception
// is on-hand, which defaults to zero when absent. Pack size and MOQ are
// floored to whole numbers and ignored unless strictly positive. Every input
// combination yields a result; there are no error cases.
func ComputeSuggestion(ctx domain.SuggestionContext) domain.SuggestionResult {
	result := domain.SuggestionResult{Notes: []string{}}

	onHand := 0.0
	if v, ok := knownFloat(ctx.OnHand); ok {
		onHand = v
	}

	par, parKnown := knownFloat(ctx.Par)
	packSize, packKnown := positiveWhole(ctx.PackSize)
	moq, moqKnown := positiveWhole(ctx.MOQ)

	if parKnown {
		result.BaseDeficit = math.Max(par-onHand, 0)
	}
	qty := result.BaseDeficit

	// With no par and nothing on hand there is no deficit to compute, but an
	// empty shelf still warrants at least one orderable pack.
	if !parKnown && onHand <= 0 {
		if packKnown && qty < packSize {
			qty = packSize
			result.Notes = append(result.Notes, "no par set; floored to pack size")
		}
		if moqKnown && qty < moq {
			qty = moq
			result.Notes = append(result.Notes, "no par set; floored to MOQ")
		}
	}

	if ctx.RoundToPack && packKnown && qty > 0 {
		if remainder := math.Mod(qty, packSize); remainder != 0 {
			qty = qty - remainder + packSize
		}
		result.Applied.Pack = true
	}

	if moqKnown && qty > 0 && qty < moq {
		qty = moq
		result.Applied.MOQ = true
	}

	result.SuggestedQty = qty

	if avg, ok := knownFloat(ctx.AvgDailySales); ok {
		if avg == 0 {
			result.Notes = append(result.Notes, "avg sales 0")
		} else {
			days := int(math.Ceil(qty / avg))
			result.EstDaysToSell = &days
		}
	}

	// Lead time is informational for now; it does not adjust the quantity.
	_, result.Applied.LeadTime = knownFloat(ctx.LeadTimeDays)
	result.Applied.ParUsed = parKnown

	return result
}

// knownFloat unwraps an optional input, treating non-finite values as absent.
func knownFloat(p *float64) (float64, bool) {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return 0, false
	}
	return *p, true
}

// positiveWhole floors an optional input to a whole number and requires it
// to be strictly positive to take effect.
func positiveWhole(p *float64) (float64, bool) {
	v, ok := knownFloat(p)
	if !ok {
		return 0, false
	}
	v = math.Floor(v)
	if v <= 0 {
		return 0, false
	}
	return v, true
}
