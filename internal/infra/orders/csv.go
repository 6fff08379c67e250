package orders

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// CSVSource reads the transaction log from the dataset's CSV layout:
// orders.csv (order_id,user_id), products.csv (product_id,product_name)
// and order_products__prior.csv (order_id,product_id). Extra columns are
// ignored; required columns are located by header name.
type CSVSource struct {
	OrdersPath   string
	ProductsPath string
	LinesPath    string
}

// NewCSVSource creates a source over the three dataset files in dir,
// using the conventional file names.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{
		OrdersPath:   dir + "/orders.csv",
		ProductsPath: dir + "/products.csv",
		LinesPath:    dir + "/order_products__prior.csv",
	}
}

// Products reads the full product catalog.
func (s *CSVSource) Products(ctx context.Context) ([]Product, error) {
	var out []Product
	err := readCSV(ctx, s.ProductsPath, []string{"product_id", "product_name"}, func(fields []string) error {
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return fmt.Errorf("product_id %q: %w", fields[0], err)
		}
		out = append(out, Product{ID: id, Name: fields[1]})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	return out, nil
}

// Orders reads the order-to-user mapping.
func (s *CSVSource) Orders(ctx context.Context) ([]Order, error) {
	var out []Order
	err := readCSV(ctx, s.OrdersPath, []string{"order_id", "user_id"}, func(fields []string) error {
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return fmt.Errorf("order_id %q: %w", fields[0], err)
		}
		out = append(out, Order{ID: id, UserID: fields[1]})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read orders: %w", err)
	}
	return out, nil
}

// Lines streams the order-product log in batches. The prior-orders file
// is the large one (tens of millions of rows in the full dataset), so it
// is never held in memory whole.
func (s *CSVSource) Lines(ctx context.Context, batchSize int, handle func([]Line) error) error {
	if batchSize <= 0 {
		batchSize = 1_000_000
	}
	batch := make([]Line, 0, batchSize)
	err := readCSV(ctx, s.LinesPath, []string{"order_id", "product_id"}, func(fields []string) error {
		orderID, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return fmt.Errorf("order_id %q: %w", fields[0], err)
		}
		productID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return fmt.Errorf("product_id %q: %w", fields[1], err)
		}
		batch = append(batch, Line{OrderID: orderID, ProductID: productID})
		if len(batch) == batchSize {
			if err := handle(batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("read order lines: %w", err)
	}
	if len(batch) > 0 {
		if err := handle(batch); err != nil {
			return fmt.Errorf("read order lines: %w", err)
		}
	}
	return nil
}

// readCSV opens path, resolves the wanted columns from the header row,
// and invokes row for every record with just those columns, in order.
func readCSV(ctx context.Context, path string, columns []string, row func(fields []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	idx := make([]int, len(columns))
	for i, want := range columns {
		idx[i] = -1
		for j, name := range header {
			if name == want {
				idx[i] = j
				break
			}
		}
		if idx[i] == -1 {
			return fmt.Errorf("column %q not found in %s", want, path)
		}
	}

	fields := make([]string, len(columns))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := r.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		for i, j := range idx {
			if j >= len(rec) {
				return fmt.Errorf("short record in %s", path)
			}
			fields[i] = rec[j]
		}
		if err := row(fields); err != nil {
			return err
		}
	}
}
