// Package recommender implements the collaborative-filtering
// recommendation engine: given a user's purchase history it returns a
// ranked list of products the user has not bought yet, computed from
// rank-50 latent embeddings and cosine similarity to other users.
package recommender

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"basket-recs/internal/domain/entity"
	"basket-recs/internal/observability/metrics"
	"basket-recs/internal/recommender/matrix"
)

// Config holds the tunable engine parameters.
type Config struct {
	// Neighbors is how many most-similar users contribute to the
	// aggregate score (the target user itself excluded).
	Neighbors int

	// SeedProduct is the bootstrap purchase recorded for users seen for
	// the first time, so no user ever has an all-zero interaction row
	// (a zero row's embedding is degenerate for similarity purposes).
	SeedProduct string

	// DefaultTopN is used when a caller asks for a non-positive count.
	DefaultTopN int
}

// DefaultConfig returns the engine parameters used in production.
func DefaultConfig() Config {
	return Config{
		Neighbors:   19,
		SeedProduct: "Bananas",
		DefaultTopN: 200,
	}
}

// Engine orchestrates embedding projection, neighbor similarity search,
// aggregation, and exclusion filtering over a persisted snapshot.
//
// The snapshot is reloaded from the store at the start of every
// operation. This is a deliberate consistency policy, not an accident:
// it trades per-request I/O for read-your-writes behavior across process
// restarts and external snapshot edits. Do not cache the snapshot here
// without adding explicit invalidation.
//
// A single mutex serializes the load-mutate-save sequence within this
// process. Known limitation: separate processes racing on the same
// snapshot directory are not coordinated.
type Engine struct {
	store  SnapshotStore
	cfg    Config
	logger *slog.Logger

	mu sync.Mutex
}

// New creates an engine over the given snapshot store.
func New(store SnapshotStore, cfg Config, logger *slog.Logger) *Engine {
	if cfg.Neighbors <= 0 {
		cfg.Neighbors = DefaultConfig().Neighbors
	}
	if cfg.SeedProduct == "" {
		cfg.SeedProduct = DefaultConfig().SeedProduct
	}
	if cfg.DefaultTopN <= 0 {
		cfg.DefaultTopN = DefaultConfig().DefaultTopN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, cfg: cfg, logger: logger}
}

// Recommend returns up to topN product names for the user, ranked by
// aggregate neighbor score, excluding products the user already bought.
// An unseen user id is never an error: the user is provisioned with the
// seed purchase and the request proceeds. Fewer than topN results are
// returned when the neighborhood does not score enough products; the
// caller must tolerate short output.
//
// All user rows are reprojected on every call. Precomputing embeddings
// per snapshot would be invalidated by every recorded purchase anyway,
// and the literal recomputation keeps ordering semantics identical
// across calls.
func (e *Engine) Recommend(ctx context.Context, userID string, topN int) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if topN <= 0 {
		topN = e.cfg.DefaultTopN
	}

	snap, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	uidx, known := snap.Users.Index(userID)
	if !known {
		e.logger.Info("provisioning unseen user with seed purchase",
			slog.String("user_id", userID),
			slog.String("seed_product", e.cfg.SeedProduct))
		snap, err = e.record(ctx, snap, userID, []string{e.cfg.SeedProduct})
		if err != nil {
			return nil, fmt.Errorf("provision user %q: %w", userID, err)
		}
		metrics.UsersProvisioned.Inc()
		// Re-read through the store so this request observes exactly the
		// state a fresh request would.
		snap, err = e.load(ctx)
		if err != nil {
			return nil, err
		}
		uidx, known = snap.Users.Index(userID)
		if !known {
			return nil, fmt.Errorf("provision user %q: user missing after save", userID)
		}
	}

	embeddings, err := snap.Model.ProjectAll(snap.Interactions)
	if err != nil {
		return nil, fmt.Errorf("project embeddings: %w", err)
	}

	neighbors := topSimilar(embeddings, uidx, e.cfg.Neighbors)
	scores, err := aggregateRows(snap.Interactions, neighbors)
	if err != nil {
		return nil, fmt.Errorf("aggregate neighbor rows: %w", err)
	}

	// Mask after aggregation: neighbor purchases of the target's own
	// items must not leak into other item scores, so masking is purely
	// positional zeroing of owned columns.
	ownedCols, _, err := snap.Interactions.Row(uidx)
	if err != nil {
		return nil, fmt.Errorf("read user row: %w", err)
	}
	for _, c := range ownedCols {
		scores[c] = 0
	}

	ranked := topScored(scores, topN)
	out := make([]string, 0, len(ranked))
	for _, idx := range ranked {
		name, err := snap.Products.ID(idx)
		if err != nil {
			return nil, fmt.Errorf("decode product index: %w", err)
		}
		out = append(out, name)
	}

	metrics.RecommendationsServed.Inc()
	metrics.RecommendationSize.Observe(float64(len(out)))
	return out, nil
}

// RecordPurchase marks the given products as purchased by the user,
// provisioning the user if unseen. Unknown product names are skipped
// with a warning; the batch is best-effort per item, never atomic. The
// snapshot is persisted once after the whole batch.
func (e *Engine) RecordPurchase(ctx context.Context, userID string, products []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.load(ctx)
	if err != nil {
		return err
	}
	if _, err := e.record(ctx, snap, userID, products); err != nil {
		return err
	}
	return nil
}

// PopularProducts returns the offline-computed global popularity list
// from the current snapshot.
func (e *Engine) PopularProducts(ctx context.Context) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(snap.PopularProducts))
	copy(out, snap.PopularProducts)
	return out, nil
}

// load reads and validates the current snapshot. Callers hold e.mu.
func (e *Engine) load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	snap, err := e.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	metrics.SnapshotLoadDuration.Observe(time.Since(start).Seconds())
	if err := snap.Validate(); err != nil {
		return nil, err
	}
	return snap, nil
}

// record applies a purchase batch to the snapshot and persists it.
// Mutation is scoped: convert to the cell-mutable layout, apply every
// set, convert back, save. Readers of the store never observe the
// intermediate layout. Callers hold e.mu.
func (e *Engine) record(ctx context.Context, snap *Snapshot, userID string, products []string) (*Snapshot, error) {
	lil := snap.Interactions.ToLIL()

	uidx, known := snap.Users.Index(userID)
	if !known {
		uidx = snap.Users.Add(userID)
		if err := lil.GrowRows(snap.Users.Len()); err != nil {
			return nil, fmt.Errorf("grow matrix for user %q: %w", userID, err)
		}
		e.logger.Info("registered new user",
			slog.String("user_id", userID),
			slog.Int("user_index", uidx))
	}

	recorded := 0
	for _, name := range products {
		iidx, ok := snap.Products.Index(name)
		if !ok {
			e.logger.Warn("skipping product",
				slog.String("user_id", userID),
				slog.String("product", name),
				slog.Any("error", entity.ErrUnknownProduct))
			metrics.UnknownProductsSkipped.Inc()
			continue
		}
		existing, err := lil.Get(uidx, iidx)
		if err != nil {
			return nil, fmt.Errorf("read cell: %w", err)
		}
		if existing != 0 {
			continue // presence already recorded, idempotent
		}
		if err := lil.Set(uidx, iidx, 1); err != nil {
			return nil, fmt.Errorf("set cell: %w", err)
		}
		recorded++
	}

	snap.Interactions = lil.ToCSR()

	start := time.Now()
	if err := e.store.Save(ctx, snap); err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	metrics.SnapshotSaveDuration.Observe(time.Since(start).Seconds())
	if recorded > 0 {
		metrics.PurchasesRecorded.Add(float64(recorded))
	}

	e.logger.Info("purchase batch recorded",
		slog.String("user_id", userID),
		slog.Int("requested", len(products)),
		slog.Int("recorded", recorded))
	return snap, nil
}

// topSimilar ranks every user by cosine similarity to the target
// embedding, descending, ties broken by ascending matrix index, and
// returns the k most similar user indices with the target itself
// dropped. Self always scores 1.0 and is the top-ranked entry, so it is
// removed by identity, not by deduplication.
func topSimilar(embeddings [][]float64, target, k int) []int {
	sims := make([]float64, len(embeddings))
	for i, emb := range embeddings {
		sims[i] = cosine(embeddings[target], emb)
	}

	order := make([]int, len(embeddings))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		if sims[order[a]] != sims[order[b]] {
			return sims[order[a]] > sims[order[b]]
		}
		return order[a] < order[b]
	})

	out := make([]int, 0, k)
	for _, idx := range order {
		if idx == target {
			continue
		}
		out = append(out, idx)
		if len(out) == k {
			break
		}
	}
	return out
}

// aggregateRows sums the given users' interaction rows element-wise into
// a dense score vector over the product space.
func aggregateRows(m *matrix.CSR, users []int) ([]float64, error) {
	_, cols := m.Dims()
	scores := make([]float64, cols)
	for _, u := range users {
		rowCols, rowVals, err := m.Row(u)
		if err != nil {
			return nil, err
		}
		for j, c := range rowCols {
			scores[c] += rowVals[j]
		}
	}
	return scores, nil
}

// topScored returns the indices of the topN highest scores, descending,
// ties broken by ascending index. Zero-score entries never qualify, so
// the result may be shorter than topN.
func topScored(scores []float64, topN int) []int {
	idxs := make([]int, 0, len(scores))
	for i, s := range scores {
		if s > 0 {
			idxs = append(idxs, i)
		}
	}
	sort.SliceStable(idxs, func(a, b int) bool {
		if scores[idxs[a]] != scores[idxs[b]] {
			return scores[idxs[a]] > scores[idxs[b]]
		}
		return idxs[a] < idxs[b]
	})
	if len(idxs) > topN {
		idxs = idxs[:topN]
	}
	return idxs
}

// cosine returns the cosine similarity of two equal-length vectors, zero
// when either has zero norm.
func cosine(a, b []float64) float64 {
	dot := floats.Dot(a, b)
	na := math.Sqrt(floats.Dot(a, a))
	nb := math.Sqrt(floats.Dot(b, b))
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (na * nb)
}
