package exportapp

import (
	"context"
	"fmt"

	"github.com/erp/connector/internal/domain/commerce"
)

// OrderSelector picks the orders eligible for export
type OrderSelector struct {
	orders commerce.OrderRepository
}

// NewOrderSelector creates an OrderSelector
func NewOrderSelector(orders commerce.OrderRepository) *OrderSelector {
	return &OrderSelector{orders: orders}
}

// Select returns the orders in one of statuses that carry no export marker,
// ordered by id. An empty status set returns nothing without querying the store.
func (s *OrderSelector) Select(ctx context.Context, statuses []commerce.Status) ([]*commerce.Order, error) {
	normalized := make([]commerce.Status, 0, len(statuses))
	seen := make(map[commerce.Status]struct{}, len(statuses))
	for _, st := range statuses {
		st = commerce.ParseStatus(string(st))
		if st == "" {
			continue
		}
		if _, dup := seen[st]; dup {
			continue
		}
		seen[st] = struct{}{}
		normalized = append(normalized, st)
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	orders, err := s.orders.FindUnexportedByStatuses(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to select orders for export: %w", err)
	}

	// exported orders are never handed out
	eligible := orders[:0]
	for _, o := range orders {
		if !o.IsExported() {
			eligible = append(eligible, o)
		}
	}
	return eligible, nil
}
