package service

import (
	"context"
	"strings"
	"testing"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/barhq/venuestock/internal/repository/memory"
	"github.com/barhq/venuestock/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedVarianceStore() *memory.Store {
	store := memory.NewStore()
	par10, par8 := 10.0, 8.0
	store.SeedCatalog("v1", []domain.InventoryItem{
		{ID: "vodka", Name: "Vodka", DepartmentID: "bar", UnitCost: 25, Par: &par10},
		{ID: "gin", Name: "Gin", DepartmentID: "bar", UnitCost: 30, Par: &par8},
	}, nil)
	store.SeedStockTake("v1",
		domain.QuantityMap{"vodka": 10, "gin": 8},
		domain.QuantityMap{"gin": 2},
		domain.QuantityMap{"vodka": 3, "gin": 1},
	)
	return store
}

func TestVarianceServiceReport(t *testing.T) {
	store := seedVarianceStore()
	svc := NewVarianceService(store, store, nil, nil)

	report, err := svc.Report(context.Background(), "v1", "")
	require.NoError(t, err)

	assert.Equal(t, "v1", report.Scope.VenueID)
	require.Len(t, report.Shortages, 1)
	require.Len(t, report.Excesses, 1)
	assert.Equal(t, 75.0, report.TotalShortageValue)
	assert.Equal(t, 30.0, report.TotalExcessValue)
}

func TestVarianceServiceRequiresVenue(t *testing.T) {
	store := seedVarianceStore()
	svc := NewVarianceService(store, store, nil, nil)

	_, err := svc.Report(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrMissingVenue)
}

// capturingStorage records uploads in memory.
type capturingStorage struct {
	key         string
	payload     []byte
	contentType string
	objects     []storage.ObjectInfo
}

func (c *capturingStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	matched := make([]storage.ObjectInfo, 0, len(c.objects))
	for _, obj := range c.objects {
		if strings.HasPrefix(obj.Key, prefix) {
			matched = append(matched, obj)
		}
	}
	return matched, nil
}

func (c *capturingStorage) UploadObject(ctx context.Context, key string, data []byte, contentType string) error {
	c.key = key
	c.payload = data
	c.contentType = contentType
	c.objects = append(c.objects, storage.ObjectInfo{Key: key, Size: int64(len(data))})
	return nil
}

func TestVarianceServiceExportCSV(t *testing.T) {
	store := seedVarianceStore()
	captured := &capturingStorage{}
	svc := NewVarianceService(store, store, nil, captured)

	key, err := svc.ExportCSV(context.Background(), "v1", "")
	require.NoError(t, err)

	assert.Equal(t, key, captured.key)
	assert.True(t, strings.HasPrefix(key, "variance/v1/"))
	assert.Equal(t, "text/csv", captured.contentType)

	body := string(captured.payload)
	assert.Contains(t, body, "vodka")
	assert.Contains(t, body, "shortage")
	assert.Contains(t, body, "gin")
	assert.Contains(t, body, "excess")
}

func TestVarianceServiceListExports(t *testing.T) {
	store := seedVarianceStore()
	captured := &capturingStorage{}
	svc := NewVarianceService(store, store, nil, captured)

	key, err := svc.ExportCSV(context.Background(), "v1", "")
	require.NoError(t, err)

	exports, err := svc.ListExports(context.Background(), "v1")
	require.NoError(t, err)
	require.Len(t, exports, 1)
	assert.Equal(t, key, exports[0].Key)

	// Other venues see none of it.
	exports, err = svc.ListExports(context.Background(), "v2")
	require.NoError(t, err)
	assert.Empty(t, exports)

	_, err = svc.ListExports(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingVenue)
}

func TestVarianceServiceExportWithoutStorage(t *testing.T) {
	store := seedVarianceStore()
	svc := NewVarianceService(store, store, nil, nil)

	_, err := svc.ExportCSV(context.Background(), "v1", "")
	assert.Error(t, err)
}
