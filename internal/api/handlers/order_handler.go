package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/barhq/venuestock/internal/repository"
	"github.com/barhq/venuestock/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type OrderHandler struct {
	replenishService *service.ReplenishService
	materializer     *service.Materializer
}

func NewOrderHandler(replenishService *service.ReplenishService, materializer *service.Materializer) *OrderHandler {
	return &OrderHandler{
		replenishService: replenishService,
		materializer:     materializer,
	}
}

// GetSuggestions returns reorder suggestions grouped by supplier key.
// ?department= scopes to one department; ?round_to_pack=true rounds each
// quantity up to the item's pack multiple.
func (h *OrderHandler) GetSuggestions(c *gin.Context) {
	venueID := c.Param("venue")
	departmentID := c.Query("department")
	roundToPack, _ := strconv.ParseBool(c.DefaultQuery("round_to_pack", "false"))

	grouped, err := h.replenishService.BuildSuggestions(c.Request.Context(), venueID, departmentID, roundToPack)
	if err != nil {
		if errors.Is(err, service.ErrMissingVenue) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("venue_id", venueID).Msg("failed to build suggestions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build suggestions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": grouped})
}

// GetOrders lists the venue's orders, optionally filtered by ?status=.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	venueID := c.Param("venue")
	status := c.Query("status")

	orders, err := h.materializer.Orders(c.Request.Context(), venueID, status)
	if err != nil {
		if errors.Is(err, service.ErrMissingVenue) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if status != "" {
			// The only other validation failure here is a bad status label.
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("venue_id", venueID).Msg("failed to list orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list orders"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

type materializeRequest struct {
	DepartmentID string `json:"department_id"`
	RoundToPack  bool   `json:"round_to_pack"`
	CreatedBy    string `json:"created_by"`
}

// MaterializeOrders rebuilds suggestions and turns them into draft orders,
// one per supplier key. The response separates created, skipped, and failed
// supplier keys; skips and per-supplier failures do not fail the request.
func (h *OrderHandler) MaterializeOrders(c *gin.Context) {
	venueID := c.Param("venue")

	var req materializeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	grouped, err := h.replenishService.BuildSuggestions(ctx, venueID, req.DepartmentID, req.RoundToPack)
	if err != nil {
		if errors.Is(err, service.ErrMissingVenue) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("venue_id", venueID).Msg("failed to build suggestions for materialization")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build suggestions"})
		return
	}

	result, err := h.materializer.Materialize(ctx, venueID, req.CreatedBy, grouped)
	if err != nil {
		log.Error().Err(err).Str("venue_id", venueID).Msg("failed to materialize draft orders")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to materialize draft orders"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteOrder deletes a draft order. Non-draft orders are rejected with 409.
func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	orderID := c.Param("id")

	err := h.materializer.DeleteDraftOrder(c.Request.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		case errors.Is(err, repository.ErrOrderNotDraft):
			c.JSON(http.StatusConflict, gin.H{"error": "only draft orders can be deleted"})
		default:
			log.Error().Err(err).Str("order_id", orderID).Msg("failed to delete draft order")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete draft order"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
