package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	importapp "github.com/erp/connector/internal/application/import"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusFileField is the multipart field carrying the ERP status file
const StatusFileField = "status_file"

// StatusImporter applies an ERP status file
type StatusImporter interface {
	Import(ctx context.Context, r io.Reader) (*importapp.StatusImportReport, error)
}

// StatusImportHandler handles status file uploads
type StatusImportHandler struct {
	BaseHandler
	importer StatusImporter
}

// NewStatusImportHandler creates a new StatusImportHandler
func NewStatusImportHandler(importer StatusImporter) *StatusImportHandler {
	return &StatusImportHandler{importer: importer}
}

// Import reads the uploaded status file and returns the per-line report.
// Line level problems are part of the report, not an error response.
func (h *StatusImportHandler) Import(c *gin.Context) {
	header, err := c.FormFile(StatusFileField)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Status file is too large")
			return
		}
		h.BadRequest(c, "A status file is required in the '"+StatusFileField+"' field")
		return
	}

	file, err := header.Open()
	if err != nil {
		h.BadRequest(c, "Failed to read the uploaded status file")
		return
	}
	defer file.Close()

	report, err := h.importer.Import(c.Request.Context(), file)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	getLogger(c).Info("Status file imported",
		zap.String("file", header.Filename),
		zap.Int("rows", report.TotalRows),
		zap.Int("updated", report.Updated),
	)
	h.Success(c, dto.StatusImportResponse{FileName: header.Filename, StatusImportReport: report})
}
