package handler

import (
	"time"

	"github.com/erp/connector/internal/domain/connector"
	"github.com/erp/connector/internal/infrastructure/scheduler"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Schedule reports the state of the automatic export
type Schedule interface {
	NextRun() (time.Time, bool)
	LastRun() (scheduler.RunInfo, bool)
	Running() bool
}

// SettingsHandler exposes the effective connector settings
type SettingsHandler struct {
	BaseHandler
	settings connector.Settings
	schedule Schedule
}

// NewSettingsHandler creates a new SettingsHandler. schedule may be nil when
// the scheduler is disabled.
func NewSettingsHandler(settings connector.Settings, schedule Schedule) *SettingsHandler {
	return &SettingsHandler{settings: settings, schedule: schedule}
}

// Get returns the settings with the next and last scheduled runs
func (h *SettingsHandler) Get(c *gin.Context) {
	var info dto.ScheduleInfo
	if h.schedule != nil {
		info.Running = h.schedule.Running()
		if next, ok := h.schedule.NextRun(); ok {
			info.NextRun = &next
		}
		if last, ok := h.schedule.LastRun(); ok {
			info.LastRun = &last
		}
	}
	h.Success(c, dto.NewSettingsResponse(h.settings, info))
}
