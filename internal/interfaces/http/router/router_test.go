package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	exportapp "github.com/erp/connector/internal/application/export"
	importapp "github.com/erp/connector/internal/application/import"
	"github.com/erp/connector/internal/domain/connector"
	"github.com/erp/connector/internal/infrastructure/activitylog"
	"github.com/erp/connector/internal/interfaces/http/handler"
	"github.com/erp/connector/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("name and prefix", func(t *testing.T) {
		g := NewDomainGroup("logs", "/logs")
		assert.Equal(t, "logs", g.Name())
		assert.Equal(t, "/logs", g.Prefix())
	})

	t.Run("middleware applies to the group only", func(t *testing.T) {
		engine := gin.New()
		api := engine.Group("/api/v1")

		guarded := NewDomainGroup("guarded", "/guarded").Use(func(c *gin.Context) {
			c.AbortWithStatus(http.StatusTeapot)
		})
		guarded.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		guarded.RegisterRoutes(api)

		open := NewDomainGroup("open", "/open")
		open.DELETE("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
		open.RegisterRoutes(api)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/guarded/x", nil))
		assert.Equal(t, http.StatusTeapot, w.Code)

		w = httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/v1/open/x", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

type fakeRunner struct{}

func (fakeRunner) RunNow(context.Context) (*exportapp.ExportResult, error) {
	return &exportapp.ExportResult{}, nil
}

type fakeImporter struct{}

func (fakeImporter) Import(context.Context, io.Reader) (*importapp.StatusImportReport, error) {
	return &importapp.StatusImportReport{}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(context.Context, string, string, string) (string, error) {
	return "", nil
}

func newConnectorEngine(t *testing.T, limits Limits) *gin.Engine {
	t.Helper()
	engine, err := NewEngine(zap.NewNop(), nil)
	require.NoError(t, err)

	r := NewRouter(engine)
	RegisterConnectorRoutes(r, Handlers{
		Export:       handler.NewExportHandler(fakeRunner{}),
		StatusImport: handler.NewStatusImportHandler(fakeImporter{}),
		ActivityLog:  handler.NewActivityLogHandler(activitylog.New(activitylog.NewMemoryStore())),
		Download:     handler.NewDownloadHandler(fakeResolver{}, t.TempDir()),
		Settings:     handler.NewSettingsHandler(connector.DefaultSettings(), nil),
		ExportMarker: handler.NewExportMarkerHandler(nil, nil),
		System:       handler.NewSystemHandler("memory", nil),
	}, limits)
	r.Setup()
	return engine
}

func TestRegisterConnectorRoutes(t *testing.T) {
	engine := newConnectorEngine(t, Limits{})

	var routes []string
	for _, route := range engine.Routes() {
		routes = append(routes, route.Method+" "+route.Path)
	}
	sort.Strings(routes)

	assert.Equal(t, []string{
		"DELETE /api/v1/customers/:id/export-marker",
		"DELETE /api/v1/logs",
		"DELETE /api/v1/orders/:id/export-marker",
		"GET /api/v1/files/download",
		"GET /api/v1/health",
		"GET /api/v1/logs",
		"GET /api/v1/settings",
		"POST /api/v1/export",
		"POST /api/v1/import/status",
	}, routes)
}

func TestConnectorRoutes_RequestID(t *testing.T) {
	engine := newConnectorEngine(t, Limits{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestConnectorRoutes_Limits(t *testing.T) {
	limiter := middleware.NewRateLimiter(1, time.Minute)
	t.Cleanup(limiter.Close)
	engine := newConnectorEngine(t, Limits{MaxUploadSize: 16, DownloadLimiter: limiter})

	t.Run("upload larger than the limit", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/import/status", strings.NewReader(strings.Repeat("x", 64)))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("download attempts are throttled", func(t *testing.T) {
		codes := make([]int, 0, 2)
		for i := 0; i < 2; i++ {
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/files/download?file=a.csv", nil))
			codes = append(codes, w.Code)
		}
		assert.Equal(t, []int{http.StatusForbidden, http.StatusTooManyRequests}, codes)
	})
}
