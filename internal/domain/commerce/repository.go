package commerce

import "context"

// OrderRepository is the store contract used by the export and import pipelines.
// Lookups that find nothing return shared.ErrNotFound.
type OrderRepository interface {
	// FindUnexportedByStatuses returns orders in one of statuses without the
	// export marker, ordered by id. An empty status list returns no orders.
	FindUnexportedByStatuses(ctx context.Context, statuses []Status) ([]*Order, error)
	FindByID(ctx context.Context, id OrderID) (*Order, error)
	// SearchLatest returns the most recent order whose number matches term.
	SearchLatest(ctx context.Context, term string) (*Order, error)
	// Save persists status, metadata and pending notes.
	Save(ctx context.Context, order *Order) error
}

// CustomerRepository loads and persists customers
type CustomerRepository interface {
	FindByID(ctx context.Context, id CustomerID) (*Customer, error)
	Save(ctx context.Context, customer *Customer) error
}
