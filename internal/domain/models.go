package domain

import "time"

// UnassignedSupplierKey groups suggested lines whose product has no resolved
// supplier. Draft orders under this key carry a NULL supplier id.
const UnassignedSupplierKey = "unassigned"

// SupplierKey returns the lock/grouping key for a supplier id.
func SupplierKey(supplierID string) string {
	if supplierID == "" {
		return UnassignedSupplierKey
	}
	return supplierID
}

// InventoryItem is a catalog entry for a venue. Par is nil when no target
// level has been set for the item; the ordering constraints and sales
// velocity are likewise nil when unknown.
type InventoryItem struct {
	ID            string   `json:"id" db:"id"`
	Name          string   `json:"name" db:"name"`
	DepartmentID  string   `json:"department_id" db:"department_id"`
	UnitCost      float64  `json:"unit_cost" db:"unit_cost"`
	Par           *float64 `json:"par,omitempty" db:"par"`
	PackSize      *float64 `json:"pack_size,omitempty" db:"pack_size"`
	MOQ           *float64 `json:"moq,omitempty" db:"moq"`
	AvgDailySales *float64 `json:"avg_daily_sales,omitempty" db:"avg_daily_sales"`
	LeadTimeDays  *float64 `json:"lead_time_days,omitempty" db:"lead_time_days"`
}

// QuantityMap maps item id to a quantity. Missing entries mean zero.
type QuantityMap map[string]float64

// VarianceRow is one item's variance against par. DeltaVsPar < 0 is a
// shortage, > 0 an excess; rows at exactly zero are omitted from the report.
type VarianceRow struct {
	ItemID            string  `json:"item_id"`
	Name              string  `json:"name"`
	TheoreticalOnHand float64 `json:"theoretical_on_hand"`
	DeltaVsPar        float64 `json:"delta_vs_par"`
	ValueImpact       float64 `json:"value_impact"`
}

// VarianceScope identifies what a report was computed over.
type VarianceScope struct {
	VenueID      string `json:"venue_id"`
	DepartmentID string `json:"department_id,omitempty"`
}

// VarianceReport is recomputed on demand and never persisted as the source
// of truth.
type VarianceReport struct {
	Scope              VarianceScope `json:"scope"`
	Shortages          []VarianceRow `json:"shortages"`
	Excesses           []VarianceRow `json:"excesses"`
	TotalShortageValue float64       `json:"total_shortage_value"`
	TotalExcessValue   float64       `json:"total_excess_value"`
}

// SuggestionContext carries the inputs for a single item's reorder
// suggestion. Nil means unknown, not zero; the one exception is OnHand,
// which defaults to zero when absent.
type SuggestionContext struct {
	Par           *float64 `json:"par,omitempty"`
	OnHand        *float64 `json:"on_hand,omitempty"`
	PackSize      *float64 `json:"pack_size,omitempty"`
	MOQ           *float64 `json:"moq,omitempty"`
	AvgDailySales *float64 `json:"avg_daily_sales,omitempty"`
	LeadTimeDays  *float64 `json:"lead_time_days,omitempty"`
	RoundToPack   bool     `json:"round_to_pack,omitempty"`
}

// AppliedAdjustments records which constraints shaped the suggested quantity.
type AppliedAdjustments struct {
	Pack     bool `json:"pack"`
	MOQ      bool `json:"moq"`
	LeadTime bool `json:"lead_time"`
	ParUsed  bool `json:"par_used"`
}

// SuggestionResult is purely derived from a SuggestionContext.
type SuggestionResult struct {
	BaseDeficit   float64            `json:"base_deficit"`
	SuggestedQty  float64            `json:"suggested_qty"`
	EstDaysToSell *int               `json:"est_days_to_sell,omitempty"`
	Applied       AppliedAdjustments `json:"applied"`
	Notes         []string           `json:"notes"`
}

// SupplierPriceOption is one supplier's price for a product. Prices must be
// on the same currency/tax basis to be comparable; options with a non-finite
// price are excluded from selection rather than failing it.
type SupplierPriceOption struct {
	SupplierID   string  `json:"supplier_id" db:"supplier_id"`
	SupplierName string  `json:"supplier_name,omitempty" db:"supplier_name"`
	Price        float64 `json:"price" db:"price"`
	IsContract   bool    `json:"is_contract" db:"is_contract"`
}

// SuggestedLine is a transient reorder line produced by the suggestion
// builder and consumed once by the materializer.
type SuggestedLine struct {
	ProductID     string   `json:"product_id"`
	ProductName   string   `json:"product_name"`
	SupplierID    string   `json:"supplier_id,omitempty"`
	SupplierName  string   `json:"supplier_name,omitempty"`
	Qty           float64  `json:"qty"`
	UnitCost      *float64 `json:"unit_cost,omitempty"`
	PackSize      *float64 `json:"pack_size,omitempty"`
	NeedsPar      bool     `json:"needs_par,omitempty"`
	NeedsSupplier bool     `json:"needs_supplier,omitempty"`
	Reason        string   `json:"reason,omitempty"`
	DepartmentID  string   `json:"department_id,omitempty"`
}

// DraftOrder is an uncommitted purchase order. SupplierID is nil for the
// unassigned bucket.
type DraftOrder struct {
	ID         string      `json:"id" db:"id"`
	VenueID    string      `json:"venue_id" db:"venue_id"`
	SupplierID *string     `json:"supplier_id" db:"supplier_id"`
	Status     string      `json:"status" db:"status"`
	Lines      []OrderLine `json:"lines" db:"-"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	CreatedBy  string      `json:"created_by" db:"created_by"`
}

// SupplierKey returns the lock key this order counts against.
func (o *DraftOrder) SupplierKey() string {
	if o.SupplierID == nil {
		return UnassignedSupplierKey
	}
	return SupplierKey(*o.SupplierID)
}

// OrderLine is a single product line on a draft order.
type OrderLine struct {
	ID          int64    `json:"id" db:"id"`
	OrderID     string   `json:"order_id" db:"order_id"`
	ProductID   string   `json:"product_id" db:"product_id"`
	ProductName string   `json:"product_name" db:"product_name"`
	Qty         float64  `json:"qty" db:"qty"`
	UnitCost    *float64 `json:"unit_cost" db:"unit_cost"`
}

// OrderLock guards draft creation per (venue, supplier key). It exists while
// at least one draft-status order is open for that key; its existence is
// derived state and self-heals if it leaks.
type OrderLock struct {
	VenueID     string    `json:"venue_id" db:"venue_id"`
	SupplierKey string    `json:"supplier_key" db:"supplier_key"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
