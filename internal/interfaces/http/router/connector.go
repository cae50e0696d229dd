package router

import (
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/erp/connector/internal/interfaces/http/handler"
	"github.com/erp/connector/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers groups the connector API handlers
type Handlers struct {
	Export       *handler.ExportHandler
	StatusImport *handler.StatusImportHandler
	ActivityLog  *handler.ActivityLogHandler
	Download     *handler.DownloadHandler
	Settings     *handler.SettingsHandler
	ExportMarker *handler.ExportMarkerHandler
	System       *handler.SystemHandler
}

// Limits bounds request sizes and download attempts
type Limits struct {
	MaxUploadSize int64
	// DownloadLimiter throttles download attempts per client. Nil disables it.
	DownloadLimiter *middleware.RateLimiter
}

// NewEngine creates a gin engine with request logging and panic recovery
func NewEngine(log *zap.Logger, trustedProxies []string) (*gin.Engine, error) {
	engine := gin.New()
	if err := engine.SetTrustedProxies(trustedProxies); err != nil {
		return nil, err
	}
	engine.Use(logger.Recovery(log), logger.GinMiddleware(log))
	return engine, nil
}

// RegisterConnectorRoutes registers the connector API on r
func RegisterConnectorRoutes(r *Router, h Handlers, limits Limits) {
	exports := NewDomainGroup("export", "/export")
	exports.POST("", h.Export.Export)

	imports := NewDomainGroup("import", "/import")
	if limits.MaxUploadSize > 0 {
		imports.Use(middleware.BodyLimit(limits.MaxUploadSize))
	}
	imports.POST("/status", h.StatusImport.Import)

	logs := NewDomainGroup("logs", "/logs")
	logs.GET("", h.ActivityLog.List)
	logs.DELETE("", h.ActivityLog.Clear)

	files := NewDomainGroup("files", "/files")
	if limits.DownloadLimiter != nil {
		files.Use(middleware.RateLimit(limits.DownloadLimiter))
	}
	files.GET("/download", h.Download.Download)

	settings := NewDomainGroup("settings", "/settings")
	settings.GET("", h.Settings.Get)

	orders := NewDomainGroup("orders", "/orders")
	orders.DELETE("/:id/export-marker", h.ExportMarker.ResetOrder)

	customers := NewDomainGroup("customers", "/customers")
	customers.DELETE("/:id/export-marker", h.ExportMarker.ResetCustomer)

	health := NewDomainGroup("health", "/health")
	health.GET("", h.System.Health)

	r.Register(exports).
		Register(imports).
		Register(logs).
		Register(files).
		Register(settings).
		Register(orders).
		Register(customers).
		Register(health)
}
