// Package orders provides read-only access to the raw transaction logs
// the offline build aggregates into the interaction matrix. Two adapters
// exist: a CSV dataset layout and a Postgres order store.
package orders

import "context"

// Product is a catalog entry. The product name, not the numeric id, is
// the identifier the recommender vocabulary is built on.
type Product struct {
	ID   int64
	Name string
}

// Order links an order to the purchasing user.
type Order struct {
	ID     int64
	UserID string
}

// Line is a single order-product incidence from the transaction log.
type Line struct {
	OrderID   int64
	ProductID int64
}

// Source streams the transaction log. Orders and Products are small
// enough to load whole; order lines are the large table and are consumed
// in batches so the caller controls memory.
type Source interface {
	// Products returns the full product catalog.
	Products(ctx context.Context) ([]Product, error)

	// Orders returns the order-to-user mapping.
	Orders(ctx context.Context) ([]Order, error)

	// Lines streams order-product lines in batches of at most batchSize,
	// invoking handle for each batch. Iteration stops on the first
	// handler error.
	Lines(ctx context.Context, batchSize int, handle func([]Line) error) error
}
