package handlers

import (
	"errors"
	"net/http"

	"github.com/barhq/venuestock/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type VarianceHandler struct {
	varianceService *service.VarianceService
}

func NewVarianceHandler(varianceService *service.VarianceService) *VarianceHandler {
	return &VarianceHandler{varianceService: varianceService}
}

// GetReport returns the venue's variance report, optionally scoped to one
// department via ?department=.
func (h *VarianceHandler) GetReport(c *gin.Context) {
	venueID := c.Param("venue")
	departmentID := c.Query("department")

	report, err := h.varianceService.Report(c.Request.Context(), venueID, departmentID)
	if err != nil {
		if errors.Is(err, service.ErrMissingVenue) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("venue_id", venueID).Msg("failed to compute variance report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute variance report"})
		return
	}

	c.JSON(http.StatusOK, report)
}

// ExportReport computes the report and uploads it as CSV to object storage.
func (h *VarianceHandler) ExportReport(c *gin.Context) {
	venueID := c.Param("venue")
	departmentID := c.Query("department")

	key, err := h.varianceService.ExportCSV(c.Request.Context(), venueID, departmentID)
	if err != nil {
		if errors.Is(err, service.ErrMissingVenue) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("venue_id", venueID).Msg("failed to export variance report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to export variance report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"key": key})
}

// ListExports returns the venue's previously exported report objects.
func (h *VarianceHandler) ListExports(c *gin.Context) {
	venueID := c.Param("venue")

	exports, err := h.varianceService.ListExports(c.Request.Context(), venueID)
	if err != nil {
		if errors.Is(err, service.ErrMissingVenue) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("venue_id", venueID).Msg("failed to list variance exports")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list variance exports"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"exports": exports})
}
