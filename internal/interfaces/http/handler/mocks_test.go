package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	exportapp "github.com/erp/connector/internal/application/export"
	importapp "github.com/erp/connector/internal/application/import"
	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/infrastructure/activitylog"
	"github.com/erp/connector/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type MockExportRunner struct {
	mock.Mock
}

func (m *MockExportRunner) RunNow(ctx context.Context) (*exportapp.ExportResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*exportapp.ExportResult), args.Error(1)
}

type MockStatusImporter struct {
	mock.Mock
	content string
}

func (m *MockStatusImporter) Import(ctx context.Context, r io.Reader) (*importapp.StatusImportReport, error) {
	data, _ := io.ReadAll(r)
	m.content = string(data)
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*importapp.StatusImportReport), args.Error(1)
}

type MockActivityLog struct {
	mock.Mock
}

func (m *MockActivityLog) Recent(ctx context.Context, limit int) ([]activitylog.Entry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]activitylog.Entry), args.Error(1)
}

func (m *MockActivityLog) Clear(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockFileResolver struct {
	mock.Mock
}

func (m *MockFileResolver) Resolve(ctx context.Context, exportDir, file, token string) (string, error) {
	args := m.Called(ctx, exportDir, file, token)
	return args.String(0), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindUnexportedByStatuses(ctx context.Context, statuses []commerce.Status) ([]*commerce.Order, error) {
	args := m.Called(ctx, statuses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id commerce.OrderID) (*commerce.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) SearchLatest(ctx context.Context, term string) (*commerce.Order, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Order), args.Error(1)
}

func (m *MockOrderRepository) Save(ctx context.Context, order *commerce.Order) error {
	return m.Called(ctx, order).Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id commerce.CustomerID) (*commerce.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*commerce.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *commerce.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

var (
	_ commerce.OrderRepository    = (*MockOrderRepository)(nil)
	_ commerce.CustomerRepository = (*MockCustomerRepository)(nil)
)

// decodeResponse unmarshals the envelope and its data into data
func decodeResponse(t *testing.T, w *httptest.ResponseRecorder, data any) dto.Response {
	t.Helper()
	var raw struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *dto.ErrorInfo  `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return dto.Response{Success: raw.Success, Error: raw.Error}
}
