package exportapp

import (
	"context"
	"sort"
	"sync"

	"github.com/erp/connector/internal/domain/commerce"
	"github.com/erp/connector/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of commerce.OrderRepository
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
	args := m.Called(ctx, order)
	return args.Error(0)
}

// memoryStore is a stateful order and customer store for pipeline tests
type memoryStore struct {
	mu        sync.Mutex
	orders    map[commerce.OrderID]*commerce.Order
	customers map[commerce.CustomerID]*commerce.Customer
	saveErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		orders:    make(map[commerce.OrderID]*commerce.Order),
		customers: make(map[commerce.CustomerID]*commerce.Customer),
	}
}

func (s *memoryStore) addOrder(o *commerce.Order) {
	s.orders[o.ID] = o
}

func (s *memoryStore) addCustomer(c *commerce.Customer) {
	s.customers[c.ID] = c
}

func (s *memoryStore) FindUnexportedByStatuses(_ context.Context, statuses []commerce.Status) ([]*commerce.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[commerce.Status]bool, len(statuses))
	for _, st := range statuses {
		wanted[st] = true
	}
	var out []*commerce.Order
	for _, o := range s.orders {
		if wanted[o.Status] && !o.IsExported() {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memoryStore) FindByID(_ context.Context, id commerce.OrderID) (*commerce.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.orders[id]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

func (s *memoryStore) SearchLatest(_ context.Context, term string) (*commerce.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *commerce.Order
	for _, o := range s.orders {
		if o.Number == term && (best == nil || o.ID > best.ID) {
			best = o
		}
	}
	if best == nil {
		return nil, shared.ErrNotFound
	}
	return best, nil
}

func (s *memoryStore) Save(_ context.Context, order *commerce.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	order.ClearPendingNotes()
	s.orders[order.ID] = order
	return nil
}

// customerStore exposes the customer half of memoryStore
type customerStore struct {
	*memoryStore
}

func (s customerStore) FindByID(_ context.Context, id commerce.CustomerID) (*commerce.Customer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.customers[id]; ok {
		return c, nil
	}
	return nil, shared.ErrNotFound
}

func (s customerStore) Save(_ context.Context, customer *commerce.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[customer.ID] = customer
	return nil
}
