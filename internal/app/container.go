// Package app assembles the connector services from configuration.
package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	exportapp "github.com/erp/connector/internal/application/export"
	importapp "github.com/erp/connector/internal/application/import"
	"github.com/erp/connector/internal/infrastructure/activitylog"
	"github.com/erp/connector/internal/infrastructure/auth"
	"github.com/erp/connector/internal/infrastructure/cache"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/download"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/erp/connector/internal/infrastructure/persistence"
	"github.com/erp/connector/internal/infrastructure/scheduler"
	"github.com/erp/connector/internal/infrastructure/storage"
	"github.com/erp/connector/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// Container holds the services shared by the server and the operator CLI
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	Database    *persistence.Database
	Stores      *cache.Stores
	ActivityLog *activitylog.Log
	Orders      *persistence.GormOrderRepository
	Customers   *persistence.GormCustomerRepository
	Tokens      *auth.DownloadTokenService
	Resolver    *download.Resolver
	Exporter    *exportapp.Exporter
	Importer    *importapp.StatusImportService
	Trigger     *scheduler.ExportTrigger
	Meters      *telemetry.MeterProvider
}

// New opens the database and the Redis or in-memory stores and wires the
// export and import pipelines. Close releases everything New opened.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Container{Config: cfg, Logger: log}

	if err := c.openDatabase(); err != nil {
		return nil, err
	}

	stores, err := cache.NewStoreFactory(cfg.Redis, cache.WithLogger(log)).Create()
	if err != nil {
		c.closeQuietly(ctx)
		return nil, fmt.Errorf("failed to create stores: %w", err)
	}
	c.Stores = stores
	c.ActivityLog = activitylog.New(stores.ActivityLog, activitylog.WithLogger(log))

	c.Meters, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.ExportInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		c.closeQuietly(ctx)
		return nil, err
	}
	metrics, err := telemetry.NewConnectorMetrics(c.Meters.Meter("github.com/erp/connector"), log)
	if err != nil {
		c.closeQuietly(ctx)
		return nil, err
	}

	if err := c.buildDownloads(); err != nil {
		c.closeQuietly(ctx)
		return nil, err
	}

	exportOpts := []exportapp.ExporterOption{
		exportapp.WithLogger(log.Named("export")),
		exportapp.WithMetrics(metrics),
		exportapp.WithLinkBuilder(download.NewLinker(download.LinkerConfig{
			PublicRoot:    cfg.Download.PublicRoot,
			PublicBaseURL: cfg.Download.PublicBaseURL,
			BaseURL:       cfg.Download.BaseURL,
		}, c.Tokens)),
	}
	if cfg.Storage.Enabled {
		archiver, err := storage.NewS3Archiver(&cfg.Storage, storage.WithLogger(log.Named("archive")))
		if err != nil {
			c.closeQuietly(ctx)
			return nil, err
		}
		if err := archiver.EnsureBucket(ctx); err != nil {
			log.Warn("Archive bucket check failed, uploads may fail", zap.Error(err))
		}
		exportOpts = append(exportOpts, exportapp.WithArchiver(archiver))
	}
	c.Exporter = exportapp.NewExporter(cfg.Connector, c.Orders, c.Customers, c.ActivityLog, exportOpts...)

	c.Importer = importapp.NewStatusImportService(cfg.Connector, c.Orders, c.ActivityLog,
		importapp.WithStatusRegistry(cfg.Connector.StatusRegistry()),
		importapp.WithMetrics(metrics),
		importapp.WithLogger(log.Named("import")),
	)

	c.Trigger, err = scheduler.NewExportTrigger(scheduler.ExportTriggerConfig{
		Frequency:     cfg.Connector.Frequency,
		At:            cfg.Connector.Time,
		CheckInterval: cfg.Scheduler.CheckInterval,
		JobTimeout:    cfg.Scheduler.JobTimeout,
	}, c.Exporter, log)
	if err != nil {
		c.closeQuietly(ctx)
		return nil, err
	}

	return c, nil
}

func (c *Container) openDatabase() error {
	gormLog := logger.NewGormLogger(c.Logger, logger.MapGormLogLevel(c.Config.Log.Level))
	db, err := persistence.NewDatabase(&c.Config.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return err
	}
	// postgres schemas are managed by cmd/migrate
	if db.Driver() == persistence.DriverSQLite {
		if err := db.AutoMigrate(); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to migrate sqlite store: %w", err)
		}
	}
	c.Database = db
	c.Orders = persistence.NewGormOrderRepository(db.DB)
	c.Customers = persistence.NewGormCustomerRepository(db.DB)
	return nil
}

func (c *Container) buildDownloads() error {
	secret := c.Config.Download.TokenSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate download token secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		c.Logger.Warn("download.token_secret is not set, download links will not survive a restart")
	}

	tokens, err := auth.NewDownloadTokenService(auth.DownloadTokenConfig{
		Secret: secret,
		TTL:    c.Config.Download.TokenTTL,
		Issuer: c.Config.Download.Issuer,
	}, c.Stores.UsedTokens)
	if err != nil {
		return err
	}
	c.Tokens = tokens
	c.Resolver = download.NewResolver(tokens)
	return nil
}

// Close stops the trigger and releases the stores, the meter provider and
// the database
func (c *Container) Close(ctx context.Context) error {
	var errs []error
	if c.Trigger != nil {
		if err := c.Trigger.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Meters != nil {
		if err := c.Meters.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Stores != nil {
		if err := c.Stores.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close stores: %w", err))
		}
	}
	if c.Database != nil {
		if err := c.Database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

func (c *Container) closeQuietly(ctx context.Context) {
	if err := c.Close(ctx); err != nil {
		c.Logger.Warn("Cleanup after failed start", zap.Error(err))
	}
}
