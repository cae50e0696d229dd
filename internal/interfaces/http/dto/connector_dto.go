package dto

import (
	"time"

	"github.com/erp/connector/internal/domain/connector"
	exportapp "github.com/erp/connector/internal/application/export"
	importapp "github.com/erp/connector/internal/application/import"
	"github.com/erp/connector/internal/infrastructure/activitylog"
	"github.com/erp/connector/internal/infrastructure/scheduler"
)

// ExportResponse is returned by a manual export
type ExportResponse struct {
	Message string                   `json:"message"`
	Clients int                      `json:"clients"`
	Orders  int                      `json:"orders"`
	Files   []exportapp.ExportedFile `json:"files"`
}

// NewExportResponse builds the manual export response from a run result
func NewExportResponse(result *exportapp.ExportResult) ExportResponse {
	files := result.Files
	if files == nil {
		files = []exportapp.ExportedFile{}
	}
	message := "Nothing to export"
	if result.Orders > 0 || result.Clients > 0 {
		message = "Export finished"
	}
	return ExportResponse{
		Message: message,
		Clients: result.Clients,
		Orders:  result.Orders,
		Files:   files,
	}
}

// StatusImportResponse is returned by a status file upload
type StatusImportResponse struct {
	FileName string `json:"file_name"`
	*importapp.StatusImportReport
}

// LogsRequest holds the query of the activity log listing
type LogsRequest struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// LogsResponse lists the most recent activity log entries, newest first
type LogsResponse struct {
	Entries []activitylog.Entry `json:"entries"`
}

// DownloadRequest holds the query of a tokenized download link
type DownloadRequest struct {
	File  string `form:"file" binding:"required"`
	Token string `form:"token" binding:"required"`
}

// SettingsResponse exposes the effective connector settings and schedule
type SettingsResponse struct {
	ExportDir            string            `json:"export_dir"`
	ClientsTemplate      string            `json:"clients_template"`
	OrderHeadersTemplate string            `json:"order_headers_template"`
	OrderLinesTemplate   string            `json:"order_lines_template"`
	Separator            string            `json:"separator"`
	Frequency            string            `json:"frequency"`
	Time                 string            `json:"time"`
	Statuses             []string          `json:"statuses"`
	StatusMapping        map[string]string `json:"status_mapping"`
	CountryLanguage      string            `json:"country_language"`
	Schedule             ScheduleInfo      `json:"schedule"`
}

// NewSettingsResponse renders settings with the effective filename templates
func NewSettingsResponse(s connector.Settings, schedule ScheduleInfo) SettingsResponse {
	statuses := make([]string, 0, len(s.Statuses))
	for _, status := range s.Statuses {
		statuses = append(statuses, string(status))
	}
	mapping := make(map[string]string, len(s.StatusMapping))
	for external, status := range s.StatusMapping {
		mapping[external] = string(status)
	}
	return SettingsResponse{
		ExportDir:            s.ExportDir,
		ClientsTemplate:      s.Template(connector.FileClients),
		OrderHeadersTemplate: s.Template(connector.FileOrderHeaders),
		OrderLinesTemplate:   s.Template(connector.FileOrderLines),
		Separator:            s.Separator.String(),
		Frequency:            string(s.Frequency),
		Time:                 s.Time.String(),
		Statuses:             statuses,
		StatusMapping:        mapping,
		CountryLanguage:      s.CountryLanguage,
		Schedule:             schedule,
	}
}

// ScheduleInfo describes the automatic export schedule
type ScheduleInfo struct {
	Running bool               `json:"running"`
	NextRun *time.Time         `json:"next_run,omitempty"`
	LastRun *scheduler.RunInfo `json:"last_run,omitempty"`
}

// MarkerResetResponse confirms an export marker reset
type MarkerResetResponse struct {
	ID       int64  `json:"id"`
	Resource string `json:"resource"`
	Exported bool   `json:"exported"`
}

// HealthResponse reports the state of the connector dependencies
type HealthResponse struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks"`
	Uptime  string            `json:"uptime"`
	Backend string            `json:"backend,omitempty"`
}
