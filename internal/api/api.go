package api

import (
	"strings"
	"time"

	"github.com/barhq/venuestock/internal/api/handlers"
	"github.com/barhq/venuestock/internal/api/middleware"
	"github.com/barhq/venuestock/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Variance     *service.VarianceService
	Replenish    *service.ReplenishService
	Materializer *service.Materializer
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	apiGroup := router.Group("/api/v1")

	if services != nil {
		venueGroup := apiGroup.Group("/venues/:venue")

		if services.Variance != nil {
			varianceHandler := handlers.NewVarianceHandler(services.Variance)
			venueGroup.GET("/variance", varianceHandler.GetReport)
			venueGroup.POST("/variance/export", varianceHandler.ExportReport)
			venueGroup.GET("/variance/exports", varianceHandler.ListExports)
		}

		if services.Replenish != nil && services.Materializer != nil {
			orderHandler := handlers.NewOrderHandler(services.Replenish, services.Materializer)
			venueGroup.GET("/suggestions", orderHandler.GetSuggestions)
			ordersGroup := venueGroup.Group("/orders")
			{
				ordersGroup.GET("", orderHandler.GetOrders)
				ordersGroup.POST("/materialize", orderHandler.MaterializeOrders)
				ordersGroup.DELETE("/:id", orderHandler.DeleteOrder)
			}
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
