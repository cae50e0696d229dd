package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = errors.New("NewConnectorMetrics: meter cannot be nil")

// ConnectorMetrics counts export runs, exported records and imported status rows.
type ConnectorMetrics struct {
	logger *zap.Logger

	exportRunsTotal     *Counter
	exportedRecords     *Counter
	importRowsTotal     *Counter
	lastExportTimestamp metric.Int64Gauge
}

// NewConnectorMetrics creates the connector instruments on meter.
func NewConnectorMetrics(meter metric.Meter, logger *zap.Logger) (*ConnectorMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cm := &ConnectorMetrics{logger: logger}
	var err error

	if cm.exportRunsTotal, err = NewCounter(meter,
		"erp_connector_export_runs_total",
		"Export runs by outcome",
		"{runs}",
	); err != nil {
		return nil, err
	}
	if cm.exportedRecords, err = NewCounter(meter,
		"erp_connector_exported_records_total",
		"Orders and clients written to ERP files",
		"{records}",
	); err != nil {
		return nil, err
	}
	if cm.importRowsTotal, err = NewCounter(meter,
		"erp_connector_import_rows_total",
		"Status file rows by outcome",
		"{rows}",
	); err != nil {
		return nil, err
	}
	if cm.lastExportTimestamp, err = meter.Int64Gauge(
		"erp_connector_last_successful_export",
		metric.WithDescription("Unix time of the last successful export"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return cm, nil
}

// RecordExportRun records one export run with its record counts
func (cm *ConnectorMetrics) RecordExportRun(ctx context.Context, succeeded bool, orders, clients int) {
	outcome := "failure"
	if succeeded {
		outcome = "success"
		cm.lastExportTimestamp.Record(ctx, time.Now().Unix())
	}
	cm.exportRunsTotal.Inc(ctx, AttrOutcome.String(outcome))
	if orders > 0 {
		cm.exportedRecords.Add(ctx, int64(orders), AttrKind.String("order"))
	}
	if clients > 0 {
		cm.exportedRecords.Add(ctx, int64(clients), AttrKind.String("client"))
	}
}

// RecordImportRow records the outcome of one status file row
func (cm *ConnectorMetrics) RecordImportRow(ctx context.Context, outcome string) {
	cm.importRowsTotal.Inc(ctx, AttrOutcome.String(outcome))
}
