package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// HealthCheck checks one dependency
type HealthCheck func(ctx context.Context) error

// SystemHandler handles the health endpoint
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	backend   string
	checks    map[string]HealthCheck
}

// NewSystemHandler creates a new SystemHandler. backend names the store
// behind the activity log and used tokens.
func NewSystemHandler(backend string, checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		backend:   backend,
		checks:    checks,
	}
}

// Health runs every check and answers 503 when one fails
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := dto.HealthResponse{
		Status:  "ok",
		Checks:  make(map[string]string, len(h.checks)),
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
		Backend: h.backend,
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Status = "degraded"
			resp.Checks[name] = err.Error()
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
