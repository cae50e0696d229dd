//go:build integration

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/erp/connector/internal/infrastructure/migration"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newPostgresDatabase starts a postgres container and applies the embedded
// migrations to it
func newPostgresDatabase(t *testing.T) *Database {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("store_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)

	m, err := migration.New(sqlDB)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	version, dirty, err := m.Version()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	db := &Database{DB: gormDB, driver: DriverPostgres}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestPostgres_ExportSelectionAndStatusUpdate(t *testing.T) {
	db := newPostgresDatabase(t)
	ctx := context.Background()
	orders := NewGormOrderRepository(db.DB)
	customers := NewGormCustomerRepository(db.DB)

	require.NoError(t, customers.Create(ctx, &commerce.Customer{
		ID:      7,
		Billing: commerce.Address{LastName: "Dupont", Country: "FR"},
	}))

	shipped := &commerce.Order{
		Number:        "1042",
		Status:        commerce.StatusShipped,
		CustomerID:    7,
		ShippingTotal: decimal.RequireFromString("4.90"),
		Items: []commerce.LineItem{
			{ProductID: 10, SKU: "MUG-01", Quantity: 2, Total: decimal.RequireFromString("20.00")},
		},
		CouponCodes: []string{"WELCOME"},
	}
	pending := &commerce.Order{Number: "1043", Status: commerce.StatusPending}
	require.NoError(t, orders.Create(ctx, shipped))
	require.NoError(t, orders.Create(ctx, pending))

	selected, err := orders.FindUnexportedByStatuses(ctx, []commerce.Status{commerce.StatusShipped})
	require.NoError(t, err)
	require.Len(t, selected, 1)
	order := selected[0]
	assert.Equal(t, "1042", order.Number)
	assert.True(t, order.ShippingTotal.Equal(decimal.RequireFromString("4.90")))
	assert.Equal(t, []string{"WELCOME"}, order.CouponCodes)

	order.MarkExported(time.Now(), commerce.ExportNote)
	require.NoError(t, orders.Save(ctx, order))

	selected, err = orders.FindUnexportedByStatuses(ctx, []commerce.Status{commerce.StatusShipped})
	require.NoError(t, err)
	assert.Empty(t, selected)

	found, err := orders.SearchLatest(ctx, "1042")
	require.NoError(t, err)
	found.TransitionTo(commerce.StatusDelivered)
	found.AddNote("Handed to customer", time.Now())
	require.NoError(t, orders.Save(ctx, found))

	stored, err := orders.FindByID(ctx, found.ID)
	require.NoError(t, err)
	assert.Equal(t, commerce.StatusDelivered, stored.Status)
	assert.True(t, stored.IsExported())

	notes, err := orders.Notes(ctx, found.ID)
	require.NoError(t, err)
	assert.Len(t, notes, 2)

	_, err = customers.FindByID(ctx, 404)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
