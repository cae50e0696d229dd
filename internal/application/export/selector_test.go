package exportapp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderSelector_EmptyStatusesSkipsQuery(t *testing.T) {
	repo := new(MockOrderRepository)
	selector := NewOrderSelector(repo)

	orders, err := selector.Select(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)

	orders, err = selector.Select(context.Background(), []commerce.Status{"", "  "})
	require.NoError(t, err)
	assert.Empty(t, orders)

	repo.AssertNotCalled(t, "FindUnexportedByStatuses", mock.Anything, mock.Anything)
}

func TestOrderSelector_NormalizesStatuses(t *testing.T) {
	repo := new(MockOrderRepository)
	want := []commerce.Status{commerce.StatusCompleted, commerce.StatusShipped}
	repo.On("FindUnexportedByStatuses", mock.Anything, want).
		Return([]*commerce.Order{{ID: 1, Status: commerce.StatusCompleted}}, nil)

	orders, err := NewOrderSelector(repo).Select(context.Background(),
		[]commerce.Status{"completed", "wc-completed", "Shipped"})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	repo.AssertExpectations(t)
}

func TestOrderSelector_NeverReturnsExportedOrders(t *testing.T) {
	exported := &commerce.Order{ID: 2, Status: commerce.StatusCompleted}
	exported.MarkExported(time.Now(), "")

	repo := new(MockOrderRepository)
	repo.On("FindUnexportedByStatuses", mock.Anything, mock.Anything).
		Return([]*commerce.Order{{ID: 1}, exported, {ID: 3}}, nil)

	orders, err := NewOrderSelector(repo).Select(context.Background(), []commerce.Status{commerce.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, commerce.OrderID(1), orders[0].ID)
	assert.Equal(t, commerce.OrderID(3), orders[1].ID)
}

func TestOrderSelector_RepositoryError(t *testing.T) {
	repo := new(MockOrderRepository)
	repo.On("FindUnexportedByStatuses", mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := NewOrderSelector(repo).Select(context.Background(), []commerce.Status{commerce.StatusCompleted})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
