package engine

import (
	"math"
	"strings"
)

// BaseUnit is the canonical dimension a quantity normalizes into.
type BaseUnit string

const (
	BaseVolume BaseUnit = "volume" // millilitres
	BaseMass   BaseUnit = "mass"   // grams
	BaseCount  BaseUnit = "count"  // discrete units
)

// NormalizedQuantity is a quantity expressed in its base unit.
type NormalizedQuantity struct {
	Quantity float64  `json:"quantity"`
	Base     BaseUnit `json:"base"`
}

type unitFactor struct {
	base   BaseUnit
	factor float64
}

// Fixed multipliers into the base unit of each dimension.
var unitFactors = map[string]unitFactor{
	"ml":         {BaseVolume, 1},
	"millilitre": {BaseVolume, 1},
	"milliliter": {BaseVolume, 1},
	"cl":         {BaseVolume, 10},
	"l":          {BaseVolume, 1000},
	"ltr":        {BaseVolume, 1000},
	"litre":      {BaseVolume, 1000},
	"liter":      {BaseVolume, 1000},

	"mg":       {BaseMass, 0.001},
	"g":        {BaseMass, 1},
	"gram":     {BaseMass, 1},
	"kg":       {BaseMass, 1000},
	"kilo":     {BaseMass, 1000},
	"kilogram": {BaseMass, 1000},

	"ea":     {BaseCount, 1},
	"each":   {BaseCount, 1},
	"pc":     {BaseCount, 1},
	"pcs":    {BaseCount, 1},
	"unit":   {BaseCount, 1},
	"units":  {BaseCount, 1},
	"btl":    {BaseCount, 1},
	"bottle": {BaseCount, 1},
	"can":    {BaseCount, 1},
	"case":   {BaseCount, 1},
}

// Normalize converts a quantity with a unit label into its canonical base
// quantity. Labels are matched case-insensitively; unknown or empty labels
// pass the value through as a count. Negative or non-finite quantities
// normalize to zero. This feeds UI defaults, so malformed input degrades to
// a safe value instead of erroring.
func Normalize(qty float64, unit string) NormalizedQuantity {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty < 0 {
		qty = 0
	}

	label := strings.ToLower(strings.TrimSpace(unit))
	if uf, ok := unitFactors[label]; ok {
		return NormalizedQuantity{Quantity: qty * uf.factor, Base: uf.base}
	}

	return NormalizedQuantity{Quantity: qty, Base: BaseCount}
}
