package importapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/connector"
	"github.com/erp/connector/internal/domain/shared"
	csvimport "github.com/erp/connector/internal/infrastructure/import"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Outcome is what happened to one line of a status file
type Outcome string

const (
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeMalformed Outcome = "malformed"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeUnmapped  Outcome = "unmapped"
	OutcomeFailed    Outcome = "failed"
)

// RowResult is the outcome of one line of a status file
type RowResult struct {
	Line           int     `json:"line"`
	OrderNumber    string  `json:"order_number,omitempty"`
	ExternalStatus string  `json:"external_status,omitempty"`
	Outcome        Outcome `json:"outcome"`
	Code           string  `json:"code,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// StatusImportReport aggregates the row results of one import
type StatusImportReport struct {
	TotalRows int         `json:"total_rows"`
	Updated   int         `json:"updated"`
	Unchanged int         `json:"unchanged"`
	Skipped   int         `json:"skipped"`
	Rows      []RowResult `json:"rows"`
}

func (r *StatusImportReport) add(row RowResult) {
	r.TotalRows++
	switch row.Outcome {
	case OutcomeUpdated:
		r.Updated++
	case OutcomeUnchanged:
		r.Unchanged++
	default:
		r.Skipped++
	}
	r.Rows = append(r.Rows, row)
}

// ActivityLog records operator-facing messages
type ActivityLog interface {
	Info(ctx context.Context, format string, args ...any)
	Success(ctx context.Context, format string, args ...any)
	Warning(ctx context.Context, format string, args ...any)
	Error(ctx context.Context, format string, args ...any)
}

// Metrics records import outcomes
type Metrics interface {
	RecordImportRow(ctx context.Context, outcome string)
}

// StatusImportService applies ERP status files to store orders. Each line is
// `number;status;note` with the configured separator and no header.
type StatusImportService struct {
	orders    commerce.OrderRepository
	mapping   connector.StatusMapping
	separator rune
	registry  *commerce.StatusRegistry
	activity  ActivityLog
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// StatusImportOption configures a StatusImportService
type StatusImportOption func(*StatusImportService)

// WithStatusRegistry rejects mapped statuses the registry does not know
func WithStatusRegistry(registry *commerce.StatusRegistry) StatusImportOption {
	return func(s *StatusImportService) {
		s.registry = registry
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(metrics Metrics) StatusImportOption {
	return func(s *StatusImportService) {
		s.metrics = metrics
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) StatusImportOption {
	return func(s *StatusImportService) {
		s.logger = l
	}
}

// WithClock overrides the time source used for order notes
func WithClock(now func() time.Time) StatusImportOption {
	return func(s *StatusImportService) {
		s.now = now
	}
}

// NewStatusImportService creates a StatusImportService using the separator
// and status mapping of settings
func NewStatusImportService(
	settings connector.Settings,
	orders commerce.OrderRepository,
	activity ActivityLog,
	opts ...StatusImportOption,
) *StatusImportService {
	mapping := settings.StatusMapping
	if mapping == nil {
		mapping = connector.DefaultStatusMapping()
	}
	s := &StatusImportService{
		orders:    orders,
		mapping:   mapping,
		separator: settings.Separator.Rune(),
		activity:  activity,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImportFile opens path and imports it. A file that cannot be opened is an
// IO_ERROR; the handle is released on every path.
func (s *StatusImportService) ImportFile(ctx context.Context, path string) (*StatusImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		ioErr := shared.NewIOError(fmt.Sprintf("cannot open status file %s", path), err)
		s.activity.Error(ctx, "Status import error: %s", ioErr.Error())
		return nil, ioErr
	}
	defer f.Close()

	return s.Import(ctx, f)
}

// Import reads status lines from r and updates the matching orders. Line
// level problems are reported in the result and never abort the import.
func (s *StatusImportService) Import(ctx context.Context, r io.Reader) (*StatusImportReport, error) {
	ctx, log := logger.WithRunID(ctx, s.logger, uuid.NewString())
	report := &StatusImportReport{Rows: []RowResult{}}

	parser, err := csvimport.NewCSVParser(r, csvimport.WithDelimiter(s.separator))
	switch {
	case errors.Is(err, csvimport.ErrEmptyFile):
		s.finish(ctx, log, report)
		return report, nil
	case err != nil:
		ioErr := shared.NewIOError("cannot read status file", err)
		s.activity.Error(ctx, "Status import error: %s", ioErr.Error())
		return nil, ioErr
	}
	if parser.Encoding() != csvimport.EncodingUTF8 {
		log.Info("Status file is not UTF-8, decoding as fallback encoding",
			zap.String("encoding", string(parser.Encoding())))
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := parser.ReadRecord()
		if err == io.EOF {
			break
		}
		var rowErr csvimport.RowError
		if errors.As(err, &rowErr) {
			s.record(ctx, report, RowResult{
				Line:    rowErr.Row,
				Outcome: OutcomeMalformed,
				Code:    shared.CodeValidation,
				Message: fmt.Sprintf("Line %d skipped: invalid format.", rowErr.Row),
			})
			continue
		}
		if err != nil {
			ioErr := shared.NewIOError("cannot read status file", err)
			s.activity.Error(ctx, "Status import error: %s", ioErr.Error())
			return nil, ioErr
		}

		s.record(ctx, report, s.applyRecord(ctx, log, rec))
	}

	s.finish(ctx, log, report)
	return report, nil
}

// applyRecord resolves one line against the store
func (s *StatusImportService) applyRecord(ctx context.Context, log *zap.Logger, rec *csvimport.Record) RowResult {
	result := RowResult{Line: rec.LineNumber}

	if len(rec.Fields) < 2 {
		result.Outcome = OutcomeMalformed
		result.Code = shared.CodeValidation
		result.Message = fmt.Sprintf("Line %d skipped: invalid format.", rec.LineNumber)
		return result
	}

	number := rec.Field(0)
	external := rec.Field(1)
	note := rec.Field(2)
	result.OrderNumber = number
	result.ExternalStatus = external

	if number == "" || external == "" {
		result.Outcome = OutcomeMalformed
		result.Code = shared.CodeValidation
		result.Message = fmt.Sprintf("Line %d skipped: missing order number or status.", rec.LineNumber)
		return result
	}

	order, err := s.findOrder(ctx, number)
	if err != nil {
		log.Warn("Order lookup failed", zap.String("order_number", number), zap.Error(err))
		result.Outcome = OutcomeFailed
		result.Code = codeOrDefault(err, shared.CodeIO)
		result.Message = fmt.Sprintf("Order %s could not be loaded: %s", number, err.Error())
		return result
	}
	if order == nil {
		result.Outcome = OutcomeNotFound
		result.Code = shared.CodeNotFound
		result.Message = fmt.Sprintf("Order %s not found.", number)
		return result
	}

	status, ok := s.mapping.Resolve(external)
	if ok && s.registry != nil && !s.registry.Known(status) {
		ok = false
	}
	if !ok {
		result.Outcome = OutcomeUnmapped
		result.Code = shared.CodeMapping
		result.Message = fmt.Sprintf("Status %s not recognized for order %s.", external, number)
		return result
	}

	order.AddNote(note, s.now())
	changed := order.TransitionTo(status)

	if changed || len(order.PendingNotes()) > 0 {
		if err := s.orders.Save(ctx, order); err != nil {
			log.Warn("Failed to save order", zap.String("order_number", number), zap.Error(err))
			result.Outcome = OutcomeFailed
			result.Code = codeOrDefault(err, shared.CodeIO)
			result.Message = fmt.Sprintf("Order %s could not be saved: %s", number, err.Error())
			return result
		}
	}

	if !changed {
		result.Outcome = OutcomeUnchanged
		return result
	}
	result.Outcome = OutcomeUpdated
	result.Message = fmt.Sprintf("Order %s: status updated to %s.", number, external)
	return result
}

// findOrder resolves a display number. A numeric number is tried as an id
// first and accepted only when the order shows the same number; otherwise
// the most recent order matching the text is used. Nothing found is (nil, nil).
func (s *StatusImportService) findOrder(ctx context.Context, number string) (*commerce.Order, error) {
	if id, err := strconv.ParseInt(number, 10, 64); err == nil && id > 0 {
		order, err := s.orders.FindByID(ctx, commerce.OrderID(id))
		switch {
		case err == nil && order.Number == number:
			return order, nil
		case err != nil && !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}
	}

	order, err := s.orders.SearchLatest(ctx, number)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *StatusImportService) record(ctx context.Context, report *StatusImportReport, row RowResult) {
	report.add(row)
	if s.metrics != nil {
		s.metrics.RecordImportRow(ctx, string(row.Outcome))
	}

	switch row.Outcome {
	case OutcomeUpdated:
		s.activity.Info(ctx, "%s", row.Message)
	case OutcomeUnchanged:
	default:
		s.activity.Warning(ctx, "%s", row.Message)
	}
}

func (s *StatusImportService) finish(ctx context.Context, log *zap.Logger, report *StatusImportReport) {
	s.activity.Success(ctx, "Import finished: %d orders updated.", report.Updated)
	log.Info("Status import finished",
		zap.Int("rows", report.TotalRows),
		zap.Int("updated", report.Updated),
		zap.Int("unchanged", report.Unchanged),
		zap.Int("skipped", report.Skipped),
	)
}

func codeOrDefault(err error, fallback string) string {
	if code := shared.CodeOf(err); code != "" {
		return code
	}
	return fallback
}
