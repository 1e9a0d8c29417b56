package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"climate-api/internal/config"
	"climate-api/internal/handlers"
	"climate-api/internal/repository"
	"climate-api/internal/schema"
	"climate-api/internal/services"
	"climate-api/pkg/database"
	"climate-api/pkg/logging"
	"climate-api/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid log level: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("climate-api", version, logLevel)
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting climate API server", logging.Fields{
		"version":   version,
		"address":   cfg.Server.Addr(),
		"db_driver": cfg.Database.Driver,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector(cfg.Metrics.Namespace, prometheus.DefaultRegisterer)

	// Initialize database
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Path:            cfg.Database.Path,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.Open(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to open data store", logging.Fields{}, err)
	}
	defer db.Close()

	// Bind entities to the live tables before serving anything
	binding, err := schema.Bind(ctx, db, schema.Tables{
		Measurement: cfg.Database.MeasurementTable,
		Station:     cfg.Database.StationTable,
	})
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Data store does not have the expected tables", logging.Fields{}, err)
	}
	logger.Info(ctx, "[SCHEMA_BOUND] Bound entities to tables", logging.Fields{
		"measurement_table": binding.Measurement.Table,
		"station_table":     binding.Station.Table,
	})

	// Initialize repository
	climateRepo := repository.NewClimateRepository(db, repository.Options{
		MeasurementTable:    binding.Measurement.Table,
		PrecipitationColumn: cfg.Query.PrecipitationColumn,
	}, logger, metricsCollector)

	// Initialize services
	climateService := services.NewClimateService(climateRepo, cfg.Query.CutoffDate, logger, metricsCollector)
	logger.Info(ctx, "[SERVICE_READY] Climate service configured", logging.Fields{
		"cutoff_date":   climateService.CutoffDate(),
		"precip_column": cfg.Query.PrecipitationColumn,
	})

	// Initialize handlers
	climateHandler := handlers.NewClimateHandler(climateService, logger, metricsCollector)

	// Setup router
	router := handlers.NewRouter(climateHandler, prometheus.DefaultGatherer, logger, metricsCollector)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
