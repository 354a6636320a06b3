package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/barhq/venuestock/internal/api"
	"github.com/barhq/venuestock/internal/cache"
	"github.com/barhq/venuestock/internal/config"
	"github.com/barhq/venuestock/internal/repository/postgres"
	"github.com/barhq/venuestock/internal/service"
	"github.com/barhq/venuestock/internal/storage"
	"github.com/barhq/venuestock/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	catalogRepo := postgres.NewCatalogRepository(db)
	stockRepo := postgres.NewStockTakeRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	varianceCache, err := cache.NewVarianceCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to cache")
	}

	var exports storage.ObjectStorage
	if cfg.Storage.Enabled {
		minioClient, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to create storage client")
		}
		exports = minioClient
	}

	retry := service.RetryPolicy{
		Attempts:  cfg.Engine.RetryAttempts,
		BaseDelay: time.Duration(cfg.Engine.RetryBaseDelayMs) * time.Millisecond,
		MaxDelay:  time.Duration(cfg.Engine.RetryMaxDelayMs) * time.Millisecond,
	}

	services := &api.Services{
		Variance:     service.NewVarianceService(catalogRepo, stockRepo, varianceCache, exports),
		Replenish:    service.NewReplenishService(catalogRepo, stockRepo),
		Materializer: service.NewMaterializer(orderRepo, retry),
	}

	router := api.NewRouter(services, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
