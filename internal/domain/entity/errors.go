package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain layer operations.
var (
	// ErrUnknownProduct indicates that a product name is absent from the
	// trained vocabulary. The product catalog is fixed at build time and
	// never grows online; in batch context callers skip and warn instead
	// of failing the whole batch.
	ErrUnknownProduct = errors.New("product not in vocabulary")

	// ErrModelNotLoaded indicates that no snapshot is available on disk.
	// Surfaced to callers as a service failure.
	ErrModelNotLoaded = errors.New("model snapshot not loaded")

	// ErrSnapshotCorrupt indicates that a persisted snapshot could not be
	// decoded or its artifacts disagree with each other.
	ErrSnapshotCorrupt = errors.New("snapshot corrupt")
)

// ShapeError reports a matrix/embedding dimension mismatch. It indicates
// snapshot corruption or code/data skew and is not recoverable.
type ShapeError struct {
	Op   string
	Want int
	Got  int
}

// Error returns a formatted error message for the shape error.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape mismatch in %s: want %d, got %d", e.Op, e.Want, e.Got)
}
