package recommender

import (
	"context"
	"fmt"

	"basket-recs/internal/domain/entity"
	"basket-recs/internal/recommender/encoding"
	"basket-recs/internal/recommender/factorize"
	"basket-recs/internal/recommender/matrix"
)

// Snapshot is the full persisted model state: user and product encoder
// registries, the sparse interaction matrix, the fitted factorization
// model, and the precomputed global popularity list. The five artifacts
// are co-versioned and must be loaded and saved together; mixing a stale
// matrix with a newer registry is an invariant violation.
type Snapshot struct {
	Users        *encoding.Registry
	Products     *encoding.Registry
	Interactions *matrix.CSR
	Model        *factorize.TruncatedSVD
	// PopularProducts is the offline-computed fallback list (top product
	// names by raw purchase count). It is carried through online saves
	// untouched and is not consumed by the ranking path.
	PopularProducts []string
}

// Validate checks the cross-artifact invariants: the matrix row count
// matches the user registry, and the column count matches both the
// product registry and the model's feature width.
func (s *Snapshot) Validate() error {
	if s.Users == nil || s.Products == nil || s.Interactions == nil || s.Model == nil {
		return fmt.Errorf("%w: missing artifact", entity.ErrSnapshotCorrupt)
	}
	rows, cols := s.Interactions.Dims()
	if rows != s.Users.Len() {
		return fmt.Errorf("%w: %v", entity.ErrSnapshotCorrupt,
			&entity.ShapeError{Op: "snapshot rows", Want: s.Users.Len(), Got: rows})
	}
	if cols != s.Products.Len() {
		return fmt.Errorf("%w: %v", entity.ErrSnapshotCorrupt,
			&entity.ShapeError{Op: "snapshot cols", Want: s.Products.Len(), Got: cols})
	}
	if !s.Model.Fitted() {
		return fmt.Errorf("%w: model has no components", entity.ErrSnapshotCorrupt)
	}
	if s.Model.NumFeatures != cols {
		return fmt.Errorf("%w: %v", entity.ErrSnapshotCorrupt,
			&entity.ShapeError{Op: "snapshot model", Want: cols, Got: s.Model.NumFeatures})
	}
	return nil
}

// SnapshotStore persists and restores snapshots as an atomic set.
// Implementations must never leave a half-written snapshot observable:
// writes are staged and swapped, not applied in place.
type SnapshotStore interface {
	// Load reads the current snapshot. Returns entity.ErrModelNotLoaded
	// when no snapshot exists and entity.ErrSnapshotCorrupt when one
	// exists but cannot be decoded consistently.
	Load(ctx context.Context) (*Snapshot, error)

	// Save atomically replaces the current snapshot.
	Save(ctx context.Context, snap *Snapshot) error
}
