// cmd/api/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/optistock/replenish/internal/api"
	"github.com/optistock/replenish/internal/cache"
	"github.com/optistock/replenish/internal/config"
	"github.com/optistock/replenish/internal/engine"
	"github.com/optistock/replenish/internal/repository"
	"github.com/optistock/replenish/internal/repository/postgres"
	"github.com/optistock/replenish/internal/rules"
	"github.com/optistock/replenish/internal/service"
	"github.com/optistock/replenish/internal/storage"
	"github.com/optistock/replenish/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	productRepo := repository.NewProductRepository(db.DB)
	seriesRepo := repository.NewSeriesRepository(db.DB)
	catalog := rules.NewCatalog()

	orchestrator := engine.NewOrchestrator(cfg.Engine, productRepo, seriesRepo, productRepo, catalog)

	decisionCache, err := cache.NewDecisionCache(cfg.Cache)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize decision cache")
	}

	var archiver *storage.Archiver
	if cfg.Archive.Enabled {
		store, err := storage.NewLocalClient(cfg.Archive.Dir)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to initialize archive storage")
		}
		archiver = storage.NewArchiver(store)
	}

	decisionService := service.NewDecisionService(orchestrator, decisionCache, archiver)

	router := api.NewRouter(&api.Services{DecisionService: decisionService}, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
