package exportapp

import (
	"context"
)

// FileWriter writes one delimited file and returns its absolute path
type FileWriter interface {
	WriteFile(path string, header []string, rows [][]string) (string, error)
}

// LinkBuilder returns the URL an operator uses to download an exported file
type LinkBuilder interface {
	Link(ctx context.Context, absPath string) (string, error)
}

// FileArchiver copies an exported file to long-term storage and returns its location
type FileArchiver interface {
	Archive(ctx context.Context, absPath string) (string, error)
}

// ActivityLog records operator-facing messages
type ActivityLog interface {
	Info(ctx context.Context, format string, args ...any)
	Success(ctx context.Context, format string, args ...any)
	Warning(ctx context.Context, format string, args ...any)
	Error(ctx context.Context, format string, args ...any)
}

// Metrics records export outcomes
type Metrics interface {
	RecordExportRun(ctx context.Context, succeeded bool, orders, clients int)
}
