package orders

import (
	"context"
	"database/sql"
	"fmt"

	"basket-recs/internal/resilience/circuitbreaker"
	"basket-recs/internal/resilience/retry"
)

// PostgresSource reads the transaction log from a Postgres order store.
// All queries are read-only and go through the circuit breaker; whole
// reads are retried with backoff on transient connection failures.
type PostgresSource struct {
	db       *circuitbreaker.DBCircuitBreaker
	retryCfg retry.Config
}

// NewPostgresSource wraps the given connection with the default order
// store resilience configuration.
func NewPostgresSource(db *sql.DB) *PostgresSource {
	return &PostgresSource{
		db:       circuitbreaker.NewDBCircuitBreaker(db),
		retryCfg: retry.DBConfig(),
	}
}

// Products reads the full product catalog.
func (s *PostgresSource) Products(ctx context.Context) ([]Product, error) {
	const query = `
SELECT product_id, product_name
FROM products
ORDER BY product_id ASC`

	var out []Product
	err := retry.WithBackoff(ctx, s.retryCfg, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var p Product
			if err := rows.Scan(&p.ID, &p.Name); err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("Products: %w", err)
	}
	return out, nil
}

// Orders reads the order-to-user mapping.
func (s *PostgresSource) Orders(ctx context.Context) ([]Order, error) {
	const query = `
SELECT order_id, user_id
FROM orders
ORDER BY order_id ASC`

	var out []Order
	err := retry.WithBackoff(ctx, s.retryCfg, func() error {
		out = out[:0]
		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return err
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var o Order
			if err := rows.Scan(&o.ID, &o.UserID); err != nil {
				return err
			}
			out = append(out, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("Orders: %w", err)
	}
	return out, nil
}

// Lines streams the order-product log in batches. The stream is not
// retried mid-way: a failure surfaces to the caller, which reruns the
// whole build.
func (s *PostgresSource) Lines(ctx context.Context, batchSize int, handle func([]Line) error) error {
	const query = `
SELECT order_id, product_id
FROM order_products
ORDER BY order_id ASC`

	if batchSize <= 0 {
		batchSize = 1_000_000
	}

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("Lines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	batch := make([]Line, 0, batchSize)
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.OrderID, &l.ProductID); err != nil {
			return fmt.Errorf("Lines: %w", err)
		}
		batch = append(batch, l)
		if len(batch) == batchSize {
			if err := handle(batch); err != nil {
				return fmt.Errorf("Lines: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("Lines: %w", err)
	}
	if len(batch) > 0 {
		if err := handle(batch); err != nil {
			return fmt.Errorf("Lines: %w", err)
		}
	}
	return nil
}
