package scheduler

import "errors"

var (
	// ErrExportInProgress is returned when an export is requested while another one runs
	ErrExportInProgress = errors.New("an export is already in progress")

	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)
