package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/erp/connector/internal/app"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/erp/connector/internal/interfaces/http/handler"
	"github.com/erp/connector/internal/interfaces/http/middleware"
	"github.com/erp/connector/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	downloadAttemptsPerWindow = 30
	downloadWindow            = time.Minute
	shutdownTimeout           = 30 * time.Second
)

func main() {
	configPath := flag.String("config", "", "Path to a config.toml (default: search ., /etc/erp-connector, /app)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync(log)

	log.Info("Starting ERP connector",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize connector", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := router.NewEngine(log, cfg.HTTP.TrustedProxies)
	if err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	downloadLimiter := middleware.NewRateLimiter(downloadAttemptsPerWindow, downloadWindow)
	defer downloadLimiter.Close()

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterConnectorRoutes(r, router.Handlers{
		Export:       handler.NewExportHandler(container.Trigger),
		StatusImport: handler.NewStatusImportHandler(container.Importer),
		ActivityLog:  handler.NewActivityLogHandler(container.ActivityLog),
		Download:     handler.NewDownloadHandler(container.Resolver, cfg.Connector.ExportDir),
		Settings:     handler.NewSettingsHandler(cfg.Connector, container.Trigger),
		ExportMarker: handler.NewExportMarkerHandler(container.Orders, container.Customers),
		System: handler.NewSystemHandler(container.Stores.Backend(), map[string]handler.HealthCheck{
			"database": func(context.Context) error { return container.Database.Ping() },
			"stores":   container.Stores.Ping,
		}),
	}, router.Limits{
		MaxUploadSize:   cfg.HTTP.MaxUploadSize,
		DownloadLimiter: downloadLimiter,
	})
	r.Setup()

	if cfg.Scheduler.Enabled {
		if err := container.Trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start export trigger", zap.Error(err))
		}
	}

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := container.Close(shutdownCtx); err != nil {
		log.Error("Error releasing connector resources", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFile(path)
	}
	return config.Load()
}
