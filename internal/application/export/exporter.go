package exportapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/connector"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/erp/connector/internal/infrastructure/csvexport"
	"github.com/erp/connector/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExportedFile describes one file written by a run
type ExportedFile struct {
	Path string `json:"path"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ExportResult is the outcome of a successful run
type ExportResult struct {
	Clients int            `json:"clients"`
	Orders  int            `json:"orders"`
	Files   []ExportedFile `json:"files"`
}

// Exporter runs the export pipeline: select orders, write the order header
// and line files, mark the orders, then write and mark their customers.
type Exporter struct {
	settings  connector.Settings
	selector  *OrderSelector
	orders    commerce.OrderRepository
	customers commerce.CustomerRepository
	formatter *Formatter
	writer    FileWriter
	activity  ActivityLog
	links     LinkBuilder
	archiver  FileArchiver
	metrics   Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// ExporterOption configures an Exporter
type ExporterOption func(*Exporter)

// WithLinkBuilder sets how download URLs are produced
func WithLinkBuilder(links LinkBuilder) ExporterOption {
	return func(e *Exporter) {
		e.links = links
	}
}

// WithArchiver copies every written file to long-term storage
func WithArchiver(archiver FileArchiver) ExporterOption {
	return func(e *Exporter) {
		e.archiver = archiver
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(metrics Metrics) ExporterOption {
	return func(e *Exporter) {
		e.metrics = metrics
	}
}

// WithFileWriter replaces the CSV writer built from the settings
func WithFileWriter(writer FileWriter) ExporterOption {
	return func(e *Exporter) {
		e.writer = writer
	}
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ExporterOption {
	return func(e *Exporter) {
		e.logger = l
	}
}

// WithClock overrides the time source used for filenames and markers
func WithClock(now func() time.Time) ExporterOption {
	return func(e *Exporter) {
		e.now = now
	}
}

// NewExporter creates an Exporter for settings
func NewExporter(
	settings connector.Settings,
	orders commerce.OrderRepository,
	customers commerce.CustomerRepository,
	activity ActivityLog,
	opts ...ExporterOption,
) *Exporter {
	e := &Exporter{
		settings:  settings,
		selector:  NewOrderSelector(orders),
		orders:    orders,
		customers: customers,
		formatter: NewFormatter(NewDisplayCountryNamer(settings.CountryLanguage)),
		activity:  activity,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.writer == nil {
		e.writer = csvexport.NewWriter(
			csvexport.WithSeparator(settings.Separator.Rune()),
			csvexport.WithLogger(e.logger),
		)
	}
	return e
}

// Run performs one export. On failure an error entry is added to the
// activity log and the error is returned with its category code; no partial
// counts are reported.
func (e *Exporter) Run(ctx context.Context) (*ExportResult, error) {
	ctx, log := logger.WithRunID(ctx, e.logger, uuid.NewString())
	start := e.now()

	result, err := e.run(ctx, log, start)
	if err != nil {
		e.activity.Error(ctx, "Export error: %s", err.Error())
		log.Error("Export failed", zap.Error(err), zap.String("code", shared.CodeOf(err)))
		e.recordMetrics(ctx, false, 0, 0)
		return nil, err
	}

	e.activity.Info(ctx, "Export finished: %d customers and %d orders exported.", result.Clients, result.Orders)
	log.Info("Export finished",
		zap.Int("orders", result.Orders),
		zap.Int("clients", result.Clients),
		zap.Duration("elapsed", time.Since(start)),
	)
	e.recordMetrics(ctx, true, result.Orders, result.Clients)
	return result, nil
}

func (e *Exporter) run(ctx context.Context, log *zap.Logger, now time.Time) (*ExportResult, error) {
	dir, err := e.validateExportDir()
	if err != nil {
		return nil, err
	}

	orders, err := e.selector.Select(ctx, e.settings.Statuses)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{Files: []ExportedFile{}}
	if len(orders) == 0 {
		e.activity.Info(ctx, "No orders to export.")
		return result, nil
	}

	customers, customerOrder, err := e.loadCustomers(ctx, orders)
	if err != nil {
		return nil, err
	}

	orderFiles, err := e.exportOrders(ctx, dir, now, orders, customers)
	if err != nil {
		return nil, fmt.Errorf("order export: %w", err)
	}
	result.Orders = len(orders)
	result.Files = append(result.Files, orderFiles...)

	clientFile, clients, err := e.exportCustomers(ctx, dir, now, customers, customerOrder)
	if err != nil {
		return nil, fmt.Errorf("customer export: %w", err)
	}
	result.Clients = clients
	if clientFile != nil {
		result.Files = append(result.Files, *clientFile)
	}

	for i := range result.Files {
		result.Files[i].URL = e.link(ctx, log, result.Files[i].Path)
		e.archive(ctx, log, result.Files[i].Path)
	}

	return result, nil
}

// validateExportDir checks the export directory is set, exists, is a
// directory and accepts new files, before anything is written.
func (e *Exporter) validateExportDir() (string, error) {
	dir := e.settings.ExportDir
	if dir == "" {
		return "", shared.NewConfigurationError("export directory is not configured")
	}

	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", shared.NewConfigurationError("export directory %s does not exist", dir)
		}
		return "", shared.WrapDomainError(shared.CodeConfiguration,
			fmt.Sprintf("export directory %s is not accessible", dir), err)
	}
	if !info.IsDir() {
		return "", shared.NewConfigurationError("export directory %s is not a directory", dir)
	}

	tmp, err := os.CreateTemp(dir, ".erp-write-check-*")
	if err != nil {
		return "", shared.WrapDomainError(shared.CodeConfiguration,
			fmt.Sprintf("export directory %s is not writable", dir), err)
	}
	name := tmp.Name()
	_ = tmp.Close()
	_ = os.Remove(name)

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", shared.WrapDomainError(shared.CodeConfiguration,
			fmt.Sprintf("cannot resolve export directory %s", dir), err)
	}
	return abs, nil
}

// loadCustomers loads the distinct customers of orders in first-appearance
// order. Customers that no longer exist map to nil.
func (e *Exporter) loadCustomers(ctx context.Context, orders []*commerce.Order) (map[commerce.CustomerID]*commerce.Customer, []commerce.CustomerID, error) {
	customers := make(map[commerce.CustomerID]*commerce.Customer)
	var ids []commerce.CustomerID

	for _, o := range orders {
		if o.IsGuest() {
			continue
		}
		if _, seen := customers[o.CustomerID]; seen {
			continue
		}
		c, err := e.customers.FindByID(ctx, o.CustomerID)
		if err != nil {
			if !errors.Is(err, shared.ErrNotFound) {
				return nil, nil, fmt.Errorf("failed to load customer %d: %w", o.CustomerID, err)
			}
			c = nil
		}
		customers[o.CustomerID] = c
		ids = append(ids, o.CustomerID)
	}
	return customers, ids, nil
}

func (e *Exporter) exportOrders(
	ctx context.Context,
	dir string,
	now time.Time,
	orders []*commerce.Order,
	customers map[commerce.CustomerID]*commerce.Customer,
) ([]ExportedFile, error) {
	headerRows := make([][]string, 0, len(orders))
	var lineRows [][]string
	for _, o := range orders {
		headerRows = append(headerRows, e.formatter.OrderHeaderRow(o))
		lineRows = append(lineRows, e.formatter.OrderLineRows(o, customers[o.CustomerID])...)
	}

	headerName := csvexport.ExpandTemplate(e.settings.Template(connector.FileOrderHeaders), now)
	linesName := csvexport.ExpandTemplate(e.settings.Template(connector.FileOrderLines), now)

	headerPath, err := e.writer.WriteFile(filepath.Join(dir, headerName), OrderHeaderColumns, headerRows)
	if err != nil {
		return nil, err
	}
	linesPath, err := e.writer.WriteFile(filepath.Join(dir, linesName), OrderLineColumns, lineRows)
	if err != nil {
		return nil, err
	}

	// orders are marked only once both files are on disk
	for _, o := range orders {
		o.MarkExported(now, commerce.ExportNote)
		if err := e.orders.Save(ctx, o); err != nil {
			return nil, fmt.Errorf("failed to mark order %s as exported: %w", o.Number, err)
		}
	}

	e.activity.Success(ctx, "%d orders exported to files %s and %s.", len(orders), headerName, linesName)

	return []ExportedFile{
		{Path: headerPath, Name: filepath.Base(headerPath)},
		{Path: linesPath, Name: filepath.Base(linesPath)},
	}, nil
}

func (e *Exporter) exportCustomers(
	ctx context.Context,
	dir string,
	now time.Time,
	customers map[commerce.CustomerID]*commerce.Customer,
	ids []commerce.CustomerID,
) (*ExportedFile, int, error) {
	exported := make([]*commerce.Customer, 0, len(ids))
	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		c := customers[id]
		if c == nil {
			e.activity.Warning(ctx, "Customer %d not found, skipped.", id)
			continue
		}
		exported = append(exported, c)
		rows = append(rows, e.formatter.ClientRow(c))
	}

	if len(rows) == 0 {
		e.activity.Info(ctx, "No customers to export from orders.")
		return nil, 0, nil
	}

	name := csvexport.ExpandTemplate(e.settings.Template(connector.FileClients), now)
	path, err := e.writer.WriteFile(filepath.Join(dir, name), ClientColumns, rows)
	if err != nil {
		return nil, 0, err
	}

	for _, c := range exported {
		c.MarkExported(now)
		if err := e.customers.Save(ctx, c); err != nil {
			return nil, 0, fmt.Errorf("failed to mark customer %d as exported: %w", c.ID, err)
		}
	}

	e.activity.Success(ctx, "%d customers exported to file %s.", len(rows), name)
	return &ExportedFile{Path: path, Name: filepath.Base(path)}, len(rows), nil
}

func (e *Exporter) link(ctx context.Context, log *zap.Logger, path string) string {
	if e.links == nil {
		return ""
	}
	url, err := e.links.Link(ctx, path)
	if err != nil {
		log.Warn("Failed to build download link", zap.String("path", path), zap.Error(err))
		return ""
	}
	return url
}

// archive failures leave the local export intact and are only reported
func (e *Exporter) archive(ctx context.Context, log *zap.Logger, path string) {
	if e.archiver == nil {
		return
	}
	location, err := e.archiver.Archive(ctx, path)
	if err != nil {
		e.activity.Warning(ctx, "Archiving %s failed: %s", filepath.Base(path), err.Error())
		log.Warn("Failed to archive export file", zap.String("path", path), zap.Error(err))
		return
	}
	log.Info("Export file archived", zap.String("path", path), zap.String("location", location))
}

func (e *Exporter) recordMetrics(ctx context.Context, succeeded bool, orders, clients int) {
	if e.metrics != nil {
		e.metrics.RecordExportRun(ctx, succeeded, orders, clients)
	}
}
