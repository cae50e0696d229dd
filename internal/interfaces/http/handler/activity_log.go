package handler

import (
	"context"

	"github.com/erp/connector/internal/infrastructure/activitylog"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// ActivityLogReader lists and clears the operator activity log
type ActivityLogReader interface {
	Recent(ctx context.Context, limit int) ([]activitylog.Entry, error)
	Clear(ctx context.Context) error
}

// ActivityLogHandler exposes the activity log
type ActivityLogHandler struct {
	BaseHandler
	log ActivityLogReader
}

// NewActivityLogHandler creates a new ActivityLogHandler
func NewActivityLogHandler(log ActivityLogReader) *ActivityLogHandler {
	return &ActivityLogHandler{log: log}
}

// List returns the most recent entries, newest first
func (h *ActivityLogHandler) List(c *gin.Context) {
	var req dto.LogsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "limit must be a number between 1 and 500")
		return
	}

	entries, err := h.log.Recent(c.Request.Context(), req.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if entries == nil {
		entries = []activitylog.Entry{}
	}
	h.Success(c, dto.LogsResponse{Entries: entries})
}

// Clear removes every entry
func (h *ActivityLogHandler) Clear(c *gin.Context) {
	if err := h.log.Clear(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Activity log cleared"})
}
