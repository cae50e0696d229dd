package activitylog

import (
	"errors"
	"time"
)

// MaxEntries is the number of entries kept; older ones are dropped.
const MaxEntries = 100

// DefaultRecentLimit is the number of entries returned when no limit is given
const DefaultRecentLimit = 20

// Level is the severity of an activity log entry
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// IsValid checks if the level is known
func (l Level) IsValid() bool {
	switch l {
	case LevelInfo, LevelSuccess, LevelWarning, LevelError:
		return true
	}
	return false
}

// Entry is one operator-facing log line
type Entry struct {
	Time    time.Time `json:"date"`
	Level   Level     `json:"type"`
	Message string    `json:"message"`
}

// ErrInvalidLevel is returned when appending an entry with an unknown level
var ErrInvalidLevel = errors.New("activitylog: invalid level")

// normalizeLimit maps non-positive limits to the default and caps at MaxEntries
func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxEntries {
		return MaxEntries
	}
	return limit
}
