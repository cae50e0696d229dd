package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	exportapp "github.com/erp/connector/internal/application/export"
	"github.com/erp/connector/internal/domain/connector"
	"go.uber.org/zap"
)

// ExportRunner runs one export
type ExportRunner interface {
	Run(ctx context.Context) (*exportapp.ExportResult, error)
}

// ExportTriggerConfig holds the schedule of the export trigger
type ExportTriggerConfig struct {
	Frequency connector.Frequency
	At        connector.TimeOfDay

	// CheckInterval is how often the loop compares the clock with the next run
	CheckInterval time.Duration
	// JobTimeout bounds a scheduled run. Zero means no bound.
	JobTimeout time.Duration
}

// Validate checks the trigger configuration
func (c ExportTriggerConfig) Validate() error {
	if !c.Frequency.IsValid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidConfig, c.Frequency)
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("%w: check interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// RunInfo describes the last finished export
type RunInfo struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Scheduled  bool      `json:"scheduled"`
	Orders     int       `json:"orders"`
	Clients    int       `json:"clients"`
	Error      string    `json:"error,omitempty"`
}

// ExportTrigger runs the export on its schedule and on demand. At most one
// export is in flight at any time across both paths.
type ExportTrigger struct {
	config ExportTriggerConfig
	runner ExportRunner
	logger *zap.Logger
	now    func() time.Time

	busy atomic.Bool

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	nextRun   time.Time
	lastRun   *RunInfo
}

// ExportTriggerOption configures an ExportTrigger
type ExportTriggerOption func(*ExportTrigger)

// WithTriggerClock replaces time.Now, for tests
func WithTriggerClock(now func() time.Time) ExportTriggerOption {
	return func(t *ExportTrigger) {
		t.now = now
	}
}

// NewExportTrigger creates an export trigger
func NewExportTrigger(config ExportTriggerConfig, runner ExportRunner, logger *zap.Logger, opts ...ExportTriggerOption) (*ExportTrigger, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &ExportTrigger{
		config: config,
		runner: runner,
		logger: logger.Named("export_trigger"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.scheduleNext(t.now())
	return t, nil
}

// Start starts the schedule loop. A disabled schedule starts nothing.
func (t *ExportTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.isRunning {
		t.mu.Unlock()
		return nil
	}
	if t.config.Frequency == connector.FrequencyDisabled {
		t.mu.Unlock()
		t.logger.Info("Scheduled export disabled")
		return nil
	}
	t.isRunning = true
	t.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel

	t.wg.Add(1)
	go t.runLoop(ctx)

	next, _ := t.NextRun()
	t.logger.Info("Export trigger started",
		zap.String("frequency", string(t.config.Frequency)),
		zap.String("at", t.config.At.String()),
		zap.Time("next_run", next),
	)
	return nil
}

// Stop stops the loop and waits for a running scheduled export, or for ctx
func (t *ExportTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	if !t.isRunning {
		t.mu.Unlock()
		return nil
	}
	t.isRunning = false
	t.mu.Unlock()

	if t.cancel != nil {
		t.cancel()
	}

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.logger.Info("Export trigger stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunNow runs the export immediately. It fails with ErrExportInProgress
// while another export runs.
func (t *ExportTrigger) RunNow(ctx context.Context) (*exportapp.ExportResult, error) {
	return t.run(ctx, false)
}

// NextRun returns when the next scheduled export is due
func (t *ExportTrigger) NextRun() (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.nextRun, !t.nextRun.IsZero()
}

// LastRun returns the last finished export, if any
func (t *ExportTrigger) LastRun() (RunInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.lastRun == nil {
		return RunInfo{}, false
	}
	return *t.lastRun, true
}

// Running reports whether an export is in flight
func (t *ExportTrigger) Running() bool {
	return t.busy.Load()
}

func (t *ExportTrigger) runLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.checkAndTrigger(ctx)
		}
	}
}

// checkAndTrigger runs the export when the next run is due, then schedules
// the following one from the current time
func (t *ExportTrigger) checkAndTrigger(ctx context.Context) {
	next, ok := t.NextRun()
	if !ok || t.now().Before(next) {
		return
	}

	runCtx := ctx
	if t.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.config.JobTimeout)
		defer cancel()
	}

	t.logger.Info("Triggering scheduled export", zap.Time("due", next))
	if _, err := t.run(runCtx, true); err != nil {
		if errors.Is(err, ErrExportInProgress) {
			t.logger.Warn("Scheduled export skipped, an export is already running")
		} else {
			t.logger.Error("Scheduled export failed", zap.Error(err))
		}
	}
	t.scheduleNext(t.now())
}

func (t *ExportTrigger) run(ctx context.Context, scheduled bool) (*exportapp.ExportResult, error) {
	if !t.busy.CompareAndSwap(false, true) {
		return nil, ErrExportInProgress
	}
	defer t.busy.Store(false)

	info := RunInfo{StartedAt: t.now(), Scheduled: scheduled}
	result, err := t.runner.Run(ctx)
	info.FinishedAt = t.now()
	if err != nil {
		info.Error = err.Error()
	} else if result != nil {
		info.Orders = result.Orders
		info.Clients = result.Clients
	}

	t.mu.Lock()
	t.lastRun = &info
	t.mu.Unlock()

	return result, err
}

func (t *ExportTrigger) scheduleNext(from time.Time) {
	next, ok := connector.NextRun(t.config.Frequency, t.config.At, from)
	t.mu.Lock()
	defer t.mu.Unlock()
	if !ok {
		t.nextRun = time.Time{}
		return
	}
	t.nextRun = next
}
