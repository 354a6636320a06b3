package service

import (
	"context"
	"testing"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/barhq/venuestock/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedReplenishStore() *memory.Store {
	store := memory.NewStore()

	par10, par5, pack6 := 10.0, 5.0, 6.0
	store.SeedCatalog("v1", []domain.InventoryItem{
		// Below par with two suppliers competing on price.
		{ID: "vodka", Name: "Vodka", DepartmentID: "bar", UnitCost: 25, Par: &par10, PackSize: &pack6},
		// Below par but no supplier prices on file.
		{ID: "syrup", Name: "House Syrup", DepartmentID: "bar", UnitCost: 4, Par: &par5},
		// Fully stocked: no suggestion.
		{ID: "gin", Name: "Gin", DepartmentID: "bar", UnitCost: 30, Par: &par5},
	}, map[string][]domain.SupplierPriceOption{
		"vodka": {
			{SupplierID: "s1", SupplierName: "Acme Spirits", Price: 22.0},
			{SupplierID: "s2", SupplierName: "Bulk Beverages", Price: 21.5},
		},
	})
	store.SeedStockTake("v1",
		domain.QuantityMap{"vodka": 3, "syrup": 1, "gin": 9},
		nil,
		nil,
	)
	return store
}

func TestBuildSuggestionsGroupsBySupplier(t *testing.T) {
	store := seedReplenishStore()
	svc := NewReplenishService(store, store)

	grouped, err := svc.BuildSuggestions(context.Background(), "v1", "", false)
	require.NoError(t, err)

	require.Contains(t, grouped, "s2")
	require.Contains(t, grouped, domain.UnassignedSupplierKey)
	assert.NotContains(t, grouped, "s1")

	vodka := grouped["s2"][0]
	assert.Equal(t, "vodka", vodka.ProductID)
	assert.Equal(t, 7.0, vodka.Qty)
	assert.Equal(t, "Bulk Beverages", vodka.SupplierName)
	require.NotNil(t, vodka.UnitCost)
	assert.Equal(t, 21.5, *vodka.UnitCost)
	assert.False(t, vodka.NeedsSupplier)
	assert.False(t, vodka.NeedsPar)

	syrup := grouped[domain.UnassignedSupplierKey][0]
	assert.Equal(t, "syrup", syrup.ProductID)
	assert.Equal(t, 4.0, syrup.Qty)
	assert.True(t, syrup.NeedsSupplier)

	// Fully stocked items never produce lines.
	for _, lines := range grouped {
		for _, line := range lines {
			assert.NotEqual(t, "gin", line.ProductID)
		}
	}
}

func TestBuildSuggestionsRoundToPack(t *testing.T) {
	store := seedReplenishStore()
	svc := NewReplenishService(store, store)

	grouped, err := svc.BuildSuggestions(context.Background(), "v1", "", true)
	require.NoError(t, err)

	vodka := grouped["s2"][0]
	// Deficit of 7 rounds up to two packs of 6.
	assert.Equal(t, 12.0, vodka.Qty)
}

func TestBuildSuggestionsDepartmentFilter(t *testing.T) {
	store := seedReplenishStore()
	par3 := 3.0
	store.SeedCatalog("v2", []domain.InventoryItem{
		{ID: "flour", Name: "Flour", DepartmentID: "kitchen", UnitCost: 2, Par: &par3},
	}, nil)
	store.SeedStockTake("v2", nil, nil, nil)

	svc := NewReplenishService(store, store)
	grouped, err := svc.BuildSuggestions(context.Background(), "v2", "bar", false)
	require.NoError(t, err)
	assert.Empty(t, grouped)
}

func TestBuildSuggestionsRequiresVenue(t *testing.T) {
	store := seedReplenishStore()
	svc := NewReplenishService(store, store)

	_, err := svc.BuildSuggestions(context.Background(), "", "", false)
	assert.ErrorIs(t, err, ErrMissingVenue)
}

func TestSuggestionsFeedMaterializer(t *testing.T) {
	store := seedReplenishStore()
	svc := NewReplenishService(store, store)
	m := NewMaterializer(store, testRetryPolicy())
	ctx := context.Background()

	grouped, err := svc.BuildSuggestions(ctx, "v1", "", false)
	require.NoError(t, err)

	result, err := m.Materialize(ctx, "v1", "alice", grouped)
	require.NoError(t, err)
	assert.Len(t, result.Created, 2)

	// Re-running the same suggestions is fully guarded.
	again, err := m.Materialize(ctx, "v1", "alice", grouped)
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Len(t, again.Skipped, 2)
}
