// Package builder implements the offline model build: it aggregates raw
// transaction logs into the user×product interaction matrix, fits the
// low-rank factorization, precomputes the global popularity list, and
// writes the initial snapshot. The build runs out of band; the online
// engine never retrains.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"basket-recs/internal/infra/orders"
	"basket-recs/internal/observability/metrics"
	"basket-recs/internal/recommender"
	"basket-recs/internal/recommender/encoding"
	"basket-recs/internal/recommender/factorize"
	"basket-recs/internal/recommender/matrix"
)

// Config holds the build parameters.
type Config struct {
	// Rank is the factorization dimensionality.
	Rank int

	// PopularTop is how many product names the popularity list keeps.
	PopularTop int

	// BatchSize is the order-line batch size read from the source.
	BatchSize int

	// Workers bounds concurrent batch aggregation.
	Workers int
}

// DefaultConfig returns the production build parameters.
func DefaultConfig() Config {
	return Config{
		Rank:       factorize.DefaultRank,
		PopularTop: 350,
		BatchSize:  1_000_000,
		Workers:    4,
	}
}

// Builder aggregates a transaction log source into a recommender
// snapshot.
type Builder struct {
	source orders.Source
	store  recommender.SnapshotStore
	cfg    Config
	logger *slog.Logger
}

// New creates a builder over the given source and snapshot store.
func New(source orders.Source, store recommender.SnapshotStore, cfg Config, logger *slog.Logger) *Builder {
	if cfg.Rank <= 0 {
		cfg.Rank = DefaultConfig().Rank
	}
	if cfg.PopularTop <= 0 {
		cfg.PopularTop = DefaultConfig().PopularTop
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{source: source, store: store, cfg: cfg, logger: logger}
}

// Build runs the full offline pipeline and persists the snapshot.
func (b *Builder) Build(ctx context.Context) error {
	start := time.Now()
	err := b.build(ctx)
	metrics.ModelBuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ModelBuildsTotal.WithLabelValues("error").Inc()
		return err
	}
	metrics.ModelBuildsTotal.WithLabelValues("ok").Inc()
	b.logger.Info("model build completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (b *Builder) build(ctx context.Context) error {
	products, err := b.source.Products(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	orderList, err := b.source.Orders(ctx)
	if err != nil {
		return fmt.Errorf("load orders: %w", err)
	}

	// Vocabularies are the sorted unique identifier sets, so a rebuild
	// over the same data assigns the same indices.
	userReg, err := encoding.NewRegistry(sortedUniqueUsers(orderList))
	if err != nil {
		return fmt.Errorf("build user registry: %w", err)
	}
	productReg, err := encoding.NewRegistry(sortedUniqueProducts(products))
	if err != nil {
		return fmt.Errorf("build product registry: %w", err)
	}

	userByOrder := make(map[int64]int, len(orderList))
	for _, o := range orderList {
		idx, ok := userReg.Index(o.UserID)
		if !ok {
			return fmt.Errorf("order %d: user %q missing from registry", o.ID, o.UserID)
		}
		userByOrder[o.ID] = idx
	}
	colByProductID := make(map[int64]int, len(products))
	for _, p := range products {
		idx, ok := productReg.Index(p.Name)
		if !ok {
			return fmt.Errorf("product %d: name %q missing from registry", p.ID, p.Name)
		}
		colByProductID[p.ID] = idx
	}

	b.logger.Info("aggregating interaction matrix",
		slog.Int("users", userReg.Len()),
		slog.Int("products", productReg.Len()))

	lil, skipped, err := b.aggregate(ctx, userByOrder, colByProductID, userReg.Len(), productReg.Len())
	if err != nil {
		return fmt.Errorf("aggregate order lines: %w", err)
	}
	if skipped > 0 {
		b.logger.Warn("order lines referenced unknown orders or products",
			slog.Int64("skipped", skipped))
	}

	inter := lil.ToCSR()
	b.logger.Info("interaction matrix built", slog.Int("nnz", inter.NNZ()))

	model := factorize.NewTruncatedSVD(b.cfg.Rank)
	b.logger.Info("fitting factorization", slog.Int("rank", b.cfg.Rank))
	if err := model.Fit(inter); err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	popular := popularProducts(inter, productReg, b.cfg.PopularTop)

	snap := &recommender.Snapshot{
		Users:           userReg,
		Products:        productReg,
		Interactions:    inter,
		Model:           model,
		PopularProducts: popular,
	}
	if err := b.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// aggregate streams order-line batches from the source and fans them out
// to a bounded worker pool. Workers accumulate raw counts into the
// shared matrix under a mutex; addition commutes, so the result is
// independent of scheduling. Returns the count of lines referencing
// unknown orders or products.
func (b *Builder) aggregate(ctx context.Context, userByOrder map[int64]int, colByProductID map[int64]int, rows, cols int) (*matrix.LIL, int64, error) {
	lil := matrix.NewLIL(rows, cols)

	var (
		mu      sync.Mutex
		skipped int64
	)

	g, ctx := errgroup.WithContext(ctx)
	batches := make(chan []orders.Line, b.cfg.Workers)

	for w := 0; w < b.cfg.Workers; w++ {
		g.Go(func() error {
			for batch := range batches {
				localSkipped := int64(0)
				mu.Lock()
				for _, line := range batch {
					uidx, ok := userByOrder[line.OrderID]
					if !ok {
						localSkipped++
						continue
					}
					cidx, ok := colByProductID[line.ProductID]
					if !ok {
						localSkipped++
						continue
					}
					if err := lil.Add(uidx, cidx, 1); err != nil {
						mu.Unlock()
						return err
					}
				}
				skipped += localSkipped
				mu.Unlock()
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(batches)
		return b.source.Lines(ctx, b.cfg.BatchSize, func(batch []orders.Line) error {
			// Sources may reuse the batch slice between callbacks.
			owned := make([]orders.Line, len(batch))
			copy(owned, batch)
			select {
			case batches <- owned:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	})

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return lil, skipped, nil
}

// popularProducts ranks product names by raw purchase count, descending,
// ties by ascending column index, and keeps the top n.
func popularProducts(m *matrix.CSR, products *encoding.Registry, n int) []string {
	sums := m.ColSums()
	idxs := make([]int, 0, len(sums))
	for i, s := range sums {
		if s > 0 {
			idxs = append(idxs, i)
		}
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		if sums[idxs[a]] != sums[idxs[b]] {
			return sums[idxs[a]] > sums[idxs[b]]
		}
		return idxs[a] < idxs[b]
	})
	if len(idxs) > n {
		idxs = idxs[:n]
	}
	out := make([]string, 0, len(idxs))
	for _, i := range idxs {
		name, err := products.ID(i)
		if err != nil {
			continue
		}
		out = append(out, name)
	}
	return out
}

func sortedUniqueUsers(orderList []orders.Order) []string {
	seen := make(map[string]struct{}, len(orderList))
	var ids []string
	for _, o := range orderList {
		if _, ok := seen[o.UserID]; ok {
			continue
		}
		seen[o.UserID] = struct{}{}
		ids = append(ids, o.UserID)
	}
	sort.Strings(ids)
	return ids
}

func sortedUniqueProducts(products []orders.Product) []string {
	seen := make(map[string]struct{}, len(products))
	var names []string
	for _, p := range products {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}
