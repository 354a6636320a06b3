package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/barhq/venuestock/internal/domain"
	"github.com/barhq/venuestock/internal/repository/memory"
	"github.com/barhq/venuestock/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	par10, par5 := 10.0, 5.0
	store.SeedCatalog("v1", []domain.InventoryItem{
		{ID: "vodka", Name: "Vodka", DepartmentID: "bar", UnitCost: 25, Par: &par10},
		{ID: "syrup", Name: "House Syrup", DepartmentID: "bar", UnitCost: 4, Par: &par5},
	}, map[string][]domain.SupplierPriceOption{
		"vodka": {
			{SupplierID: "s1", SupplierName: "Acme Spirits", Price: 22.0},
		},
	})
	store.SeedStockTake("v1",
		domain.QuantityMap{"vodka": 3, "syrup": 1},
		nil,
		nil,
	)

	retry := service.RetryPolicy{Attempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	services := &Services{
		Variance:     service.NewVarianceService(store, store, nil, nil),
		Replenish:    service.NewReplenishService(store, store),
		Materializer: service.NewMaterializer(store, retry),
	}

	return NewRouter(services, nil)
}

func doRequest(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	resp := doRequest(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestGetVarianceReport(t *testing.T) {
	router := newTestRouter(t)

	resp := doRequest(router, http.MethodGet, "/api/v1/venues/v1/variance", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var report domain.VarianceReport
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &report))
	assert.Equal(t, "v1", report.Scope.VenueID)
	assert.Len(t, report.Shortages, 2)
	assert.Empty(t, report.Excesses)
}

func TestGetSuggestions(t *testing.T) {
	router := newTestRouter(t)

	resp := doRequest(router, http.MethodGet, "/api/v1/venues/v1/suggestions", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Suggestions map[string][]domain.SuggestedLine `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Contains(t, payload.Suggestions, "s1")
	assert.Contains(t, payload.Suggestions, domain.UnassignedSupplierKey)
}

func TestMaterializeThenDelete(t *testing.T) {
	router := newTestRouter(t)
	body := map[string]interface{}{"created_by": "alice"}

	resp := doRequest(router, http.MethodPost, "/api/v1/venues/v1/orders/materialize", body)
	require.Equal(t, http.StatusOK, resp.Code)

	var result service.BatchResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &result))
	require.Len(t, result.Created, 2)
	assert.Empty(t, result.Failed)

	// Re-materializing the same suggestions is guarded per supplier key.
	resp = doRequest(router, http.MethodPost, "/api/v1/venues/v1/orders/materialize", body)
	require.Equal(t, http.StatusOK, resp.Code)
	var again service.BatchResult
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &again))
	assert.Empty(t, again.Created)
	assert.Len(t, again.Skipped, 2)

	orderID := result.Created[0].ID
	resp = doRequest(router, http.MethodDelete, "/api/v1/venues/v1/orders/"+orderID, nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(router, http.MethodDelete, "/api/v1/venues/v1/orders/"+orderID, nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestGetOrdersRejectsUnknownStatus(t *testing.T) {
	router := newTestRouter(t)

	resp := doRequest(router, http.MethodGet, "/api/v1/venues/v1/orders?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetOrdersFiltersByStatus(t *testing.T) {
	router := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/v1/venues/v1/orders/materialize", map[string]interface{}{})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = doRequest(router, http.MethodGet, "/api/v1/venues/v1/orders?status=draft", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var payload struct {
		Orders []domain.DraftOrder `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Len(t, payload.Orders, 2)

	resp = doRequest(router, http.MethodGet, "/api/v1/venues/v1/orders?status=submitted", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	payload.Orders = nil
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Empty(t, payload.Orders)
}
