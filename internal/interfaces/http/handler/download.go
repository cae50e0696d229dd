package handler

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/erp/connector/internal/infrastructure/download"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// FileResolver validates a download request against the export directory
type FileResolver interface {
	Resolve(ctx context.Context, exportDir, file, token string) (string, error)
}

// DownloadHandler serves exported files behind single-use tokens
type DownloadHandler struct {
	BaseHandler
	resolver  FileResolver
	exportDir string
}

// NewDownloadHandler creates a new DownloadHandler for exportDir
func NewDownloadHandler(resolver FileResolver, exportDir string) *DownloadHandler {
	return &DownloadHandler{resolver: resolver, exportDir: exportDir}
}

// Download streams the requested file as an attachment
func (h *DownloadHandler) Download(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.Forbidden(c, "A file name and a download token are required")
		return
	}

	path, err := h.resolver.Resolve(c.Request.Context(), h.exportDir, req.File, req.Token)
	if err != nil {
		getLogger(c).Warn("Download refused", zap.String("file", req.File), zap.Error(err))
		switch {
		case errors.Is(err, download.ErrFileNotFound):
			h.NotFound(c, "File not found")
		case errors.Is(err, download.ErrForbidden):
			h.Forbidden(c, "Download not allowed")
		default:
			h.HandleError(c, err)
		}
		return
	}

	c.Header("Cache-Control", "no-store")
	c.FileAttachment(path, filepath.Base(path))
}
