package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/erp/connector/internal/app"
	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/connector"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/erp/connector/internal/infrastructure/config"
	"github.com/erp/connector/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newContainer(t *testing.T) *app.Container {
	t.Helper()
	dir := t.TempDir()
	settings := connector.DefaultSettings()
	settings.ExportDir = dir
	cfg := &config.Config{
		Database: config.DatabaseConfig{
			Driver: persistence.DriverSQLite,
			Path:   filepath.Join(dir, "store.db"),
		},
		Scheduler: config.SchedulerConfig{CheckInterval: time.Second},
		Connector: settings,
		Download:  config.DownloadConfig{BaseURL: "http://localhost:8080/api/v1/files/download", TokenTTL: time.Hour},
	}
	c, err := app.New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func run(t *testing.T, c *app.Container, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(context.Background(), c, args, &out)
	return out.String(), err
}

func TestExecute_ExportAndLogs(t *testing.T) {
	c := newContainer(t)

	out, err := run(t, c, "export")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to export\n", out)

	out, err = run(t, c, "logs", "-limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "No orders to export.")

	out, err = run(t, c, "clear-logs")
	require.NoError(t, err)
	assert.Equal(t, "Activity log cleared\n", out)

	out, err = run(t, c, "logs")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestExecute_ExportOrders(t *testing.T) {
	c := newContainer(t)
	order := &commerce.Order{
		Number:     "1042",
		Status:     commerce.StatusCompleted,
		CustomerID: 7,
		Items: []commerce.LineItem{
			{ProductID: 10, SKU: "MUG-01", Name: "Mug", Quantity: 2, Total: decimal.RequireFromString("20")},
		},
		CreatedAt: time.Date(2025, 3, 6, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.Orders.Create(context.Background(), order))

	out, err := run(t, c, "export")
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 orders")

	stored, err := c.Orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsExported())

	out, err = run(t, c, "reset-order", fmt.Sprint(order.ID))
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Export marker of order %d cleared\n", order.ID), out)

	stored, err = c.Orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsExported())
}

func TestExecute_Import(t *testing.T) {
	c := newContainer(t)
	order := &commerce.Order{Number: "1042", Status: commerce.StatusShipped, CustomerID: 7}
	require.NoError(t, c.Orders.Create(context.Background(), order))

	path := filepath.Join(t.TempDir(), "statuts.csv")
	require.NoError(t, os.WriteFile(path, []byte("1042;LIVREE;Handed to customer\n"), 0o644))

	out, err := run(t, c, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "1 rows: 1 updated, 0 unchanged, 0 skipped")

	stored, err := c.Orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, commerce.StatusDelivered, stored.Status)

	_, err = run(t, c, "import", filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestExecute_Errors(t *testing.T) {
	c := newContainer(t)

	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"sync"}},
		{"import without file", []string{"import"}},
		{"bad logs flag", []string{"logs", "-limit", "many"}},
		{"reset without id", []string{"reset-order"}},
		{"reset negative id", []string{"reset-customer", "-3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, c, tt.args...)
			assert.ErrorIs(t, err, errUsage)
		})
	}

	_, err := run(t, c, "reset-customer", "999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
