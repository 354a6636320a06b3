package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseOrderStatus(t *testing.T) {
	status, ok := ParseOrderStatus(" Draft ")
	assert.True(t, ok)
	assert.Equal(t, OrderStatusDraft, status)

	_, ok = ParseOrderStatus("approved")
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	assert.True(t, CanTransition(OrderStatusDraft, OrderStatusSubmitted))
	assert.True(t, CanTransition(OrderStatusDraft, OrderStatusCancelled))
	assert.True(t, CanTransition(OrderStatusSubmitted, OrderStatusReceived))

	assert.False(t, CanTransition(OrderStatusSubmitted, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusReceived, OrderStatusDraft))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusSubmitted))
}

func TestSupplierKey(t *testing.T) {
	assert.Equal(t, "sup-1", SupplierKey("sup-1"))
	assert.Equal(t, UnassignedSupplierKey, SupplierKey(""))

	order := DraftOrder{VenueID: "v1"}
	assert.Equal(t, UnassignedSupplierKey, order.SupplierKey())

	id := "sup-2"
	order.SupplierID = &id
	assert.Equal(t, "sup-2", order.SupplierKey())
}
