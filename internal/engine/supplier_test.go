package engine

import (
	"math"
	"testing"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChooseCheapestPicksLowestPrice(t *testing.T) {
	options := []domain.SupplierPriceOption{
		{SupplierID: "s1", Price: 12.5},
		{SupplierID: "s2", Price: 10.0},
		{SupplierID: "s3", Price: 11.0},
	}

	best := ChooseCheapest(options)
	require.NotNil(t, best)
	assert.Equal(t, "s2", best.SupplierID)
}

func TestChooseCheapestContractWinsTie(t *testing.T) {
	options := []domain.SupplierPriceOption{
		{SupplierID: "s1", Price: 10.0, IsContract: false},
		{SupplierID: "s2", Price: 10.0, IsContract: true},
	}

	best := ChooseCheapest(options)
	require.NotNil(t, best)
	assert.Equal(t, "s2", best.SupplierID)
}

func TestChooseCheapestStableAmongEqualOptions(t *testing.T) {
	options := []domain.SupplierPriceOption{
		{SupplierID: "s1", Price: 10.0},
		{SupplierID: "s2", Price: 10.0},
	}

	// Same price, same contract status: input order decides, reproducibly.
	for i := 0; i < 5; i++ {
		best := ChooseCheapest(options)
		require.NotNil(t, best)
		assert.Equal(t, "s1", best.SupplierID)
	}
}

func TestChooseCheapestSkipsNonFinitePrices(t *testing.T) {
	options := []domain.SupplierPriceOption{
		{SupplierID: "s1", Price: math.NaN()},
		{SupplierID: "s2", Price: math.Inf(1)},
		{SupplierID: "s3", Price: 9.0},
	}

	best := ChooseCheapest(options)
	require.NotNil(t, best)
	assert.Equal(t, "s3", best.SupplierID)
}

func TestChooseCheapestNilWhenNothingQualifies(t *testing.T) {
	assert.Nil(t, ChooseCheapest(nil))
	assert.Nil(t, ChooseCheapest([]domain.SupplierPriceOption{}))
	assert.Nil(t, ChooseCheapest([]domain.SupplierPriceOption{
		{SupplierID: "s1", Price: math.NaN()},
		{SupplierID: "s2", Price: math.Inf(-1)},
	}))
}

func TestChooseCheapestDoesNotMutateInput(t *testing.T) {
	options := []domain.SupplierPriceOption{
		{SupplierID: "s1", Price: 12.0},
		{SupplierID: "s2", Price: 10.0},
	}

	_ = ChooseCheapest(options)
	assert.Equal(t, "s1", options[0].SupplierID)
	assert.Equal(t, "s2", options[1].SupplierID)
}
