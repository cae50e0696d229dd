package activitylog

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Store persists activity log entries
type Store interface {
	// Append adds an entry at the head, dropping entries beyond MaxEntries.
	Append(ctx context.Context, entry Entry) error
	// Recent returns up to limit entries, newest first. A non-positive
	// limit means DefaultRecentLimit.
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
}

// Log is the operator-facing activity log of the connector. Every entry is
// mirrored to zap. Store failures are logged and never fail the caller.
type Log struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// Option configures a Log
type Option func(*Log)

// WithLogger sets the zap logger entries are mirrored to
func WithLogger(logger *zap.Logger) Option {
	return func(l *Log) {
		l.logger = logger
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		l.now = now
	}
}

// New creates a Log on store
func New(store Store, opts ...Option) *Log {
	l := &Log{
		store:  store,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.Named("activity")
	return l
}

// Append records message at level
func (l *Log) Append(ctx context.Context, level Level, message string) {
	if !level.IsValid() {
		l.logger.Warn("Activity log entry with invalid level", zap.String("level", string(level)), zap.Error(ErrInvalidLevel))
		level = LevelInfo
	}

	l.logger.Log(zapLevel(level), message, zap.String("type", string(level)))

	entry := Entry{Time: l.now(), Level: level, Message: message}
	if err := l.store.Append(ctx, entry); err != nil {
		l.logger.Error("Failed to store activity log entry", zap.Error(err))
	}
}

// Info records an informational entry
func (l *Log) Info(ctx context.Context, format string, args ...any) {
	l.Append(ctx, LevelInfo, fmt.Sprintf(format, args...))
}

// Success records a success entry
func (l *Log) Success(ctx context.Context, format string, args ...any) {
	l.Append(ctx, LevelSuccess, fmt.Sprintf(format, args...))
}

// Warning records a warning entry
func (l *Log) Warning(ctx context.Context, format string, args ...any) {
	l.Append(ctx, LevelWarning, fmt.Sprintf(format, args...))
}

// Error records an error entry
func (l *Log) Error(ctx context.Context, format string, args ...any) {
	l.Append(ctx, LevelError, fmt.Sprintf(format, args...))
}

// Recent returns up to limit entries, newest first
func (l *Log) Recent(ctx context.Context, limit int) ([]Entry, error) {
	return l.store.Recent(ctx, limit)
}

// Clear removes every entry
func (l *Log) Clear(ctx context.Context) error {
	if err := l.store.Clear(ctx); err != nil {
		return err
	}
	l.logger.Info("Activity log cleared")
	return nil
}

func zapLevel(level Level) zapcore.Level {
	switch level {
	case LevelWarning:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
