package handler

import (
	"context"
	"errors"
	"net/http"

	exportapp "github.com/erp/connector/internal/application/export"
	"github.com/erp/connector/internal/infrastructure/scheduler"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ExportRunner starts an export outside the schedule
type ExportRunner interface {
	RunNow(ctx context.Context) (*exportapp.ExportResult, error)
}

// ExportHandler handles manual export requests
type ExportHandler struct {
	BaseHandler
	runner ExportRunner
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(runner ExportRunner) *ExportHandler {
	return &ExportHandler{runner: runner}
}

// Export runs an export and returns the files it wrote. A request made
// while another export is running is answered with 409.
func (h *ExportHandler) Export(c *gin.Context) {
	result, err := h.runner.RunNow(c.Request.Context())
	if err != nil {
		if errors.Is(err, scheduler.ErrExportInProgress) {
			h.Error(c, http.StatusConflict, dto.ErrCodeExportInProgress, "An export is already running")
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.NewExportResponse(result))
}
