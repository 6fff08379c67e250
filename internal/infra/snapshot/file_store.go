// Package snapshot persists the recommender model snapshot as a set of
// five co-versioned JSON artifacts in a single directory: factorization
// model parameters, user index table, product index table, sparse
// interaction matrix, and the precomputed popularity list. Saves are
// staged into a temporary directory and swapped into place by rename,
// never written over the live snapshot in place.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"basket-recs/internal/domain/entity"
	"basket-recs/internal/recommender"
	"basket-recs/internal/recommender/encoding"
	"basket-recs/internal/recommender/factorize"
	"basket-recs/internal/recommender/matrix"
)

// Artifact file names inside a snapshot directory.
const (
	modelFile    = "svd_model.json"
	usersFile    = "user_index.json"
	productsFile = "product_index.json"
	matrixFile   = "sparse_matrix.json"
	popularFile  = "popular_products.json"

	currentDir = "current"
)

// FileStore stores snapshots under a root directory. The live snapshot
// lives in <root>/current; saves build <root>/staging-<uuid> and rotate
// it in.
type FileStore struct {
	root string
}

// NewFileStore creates a store rooted at dir, creating it if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("snapshot store: empty root dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot store: create root: %w", err)
	}
	return &FileStore{root: dir}, nil
}

// Root returns the store's root directory.
func (s *FileStore) Root() string {
	return s.root
}

// Exists reports whether a live snapshot is present.
func (s *FileStore) Exists() bool {
	_, err := os.Stat(filepath.Join(s.root, currentDir, modelFile))
	return err == nil
}

// Load reads the five artifacts of the live snapshot together. A missing
// snapshot yields entity.ErrModelNotLoaded; a present but undecodable
// one yields entity.ErrSnapshotCorrupt.
func (s *FileStore) Load(ctx context.Context) (*recommender.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, currentDir)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, entity.ErrModelNotLoaded
		}
		return nil, fmt.Errorf("stat snapshot dir: %w", err)
	}

	var (
		model   factorize.TruncatedSVD
		users   encoding.Registry
		prods   encoding.Registry
		inter   matrix.CSR
		popular []string
	)
	if err := readArtifact(dir, modelFile, &model); err != nil {
		return nil, err
	}
	if err := readArtifact(dir, usersFile, &users); err != nil {
		return nil, err
	}
	if err := readArtifact(dir, productsFile, &prods); err != nil {
		return nil, err
	}
	if err := readArtifact(dir, matrixFile, &inter); err != nil {
		return nil, err
	}
	if err := readArtifact(dir, popularFile, &popular); err != nil {
		return nil, err
	}

	return &recommender.Snapshot{
		Users:           &users,
		Products:        &prods,
		Interactions:    &inter,
		Model:           &model,
		PopularProducts: popular,
	}, nil
}

// Save writes all five artifacts into a staging directory and swaps it
// into place. The previous snapshot directory is removed only after the
// new one has been rotated in, so a crash mid-save leaves either the old
// or the new snapshot fully intact, never a mix.
func (s *FileStore) Save(ctx context.Context, snap *recommender.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return err
	}

	staging := filepath.Join(s.root, "staging-"+uuid.New().String())
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	// Staging is discarded on any failure below.
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.RemoveAll(staging)
		}
	}()

	if err := writeArtifact(staging, modelFile, snap.Model); err != nil {
		return err
	}
	if err := writeArtifact(staging, usersFile, snap.Users); err != nil {
		return err
	}
	if err := writeArtifact(staging, productsFile, snap.Products); err != nil {
		return err
	}
	if err := writeArtifact(staging, matrixFile, snap.Interactions); err != nil {
		return err
	}
	popular := snap.PopularProducts
	if popular == nil {
		popular = []string{}
	}
	if err := writeArtifact(staging, popularFile, popular); err != nil {
		return err
	}

	current := filepath.Join(s.root, currentDir)
	retired := filepath.Join(s.root, "retired-"+uuid.New().String())

	hadCurrent := true
	if err := os.Rename(current, retired); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("retire current snapshot: %w", err)
		}
		hadCurrent = false
	}
	if err := os.Rename(staging, current); err != nil {
		// Roll the old snapshot back so readers are not left with nothing.
		if hadCurrent {
			_ = os.Rename(retired, current)
		}
		return fmt.Errorf("activate snapshot: %w", err)
	}
	cleanup = false
	if hadCurrent {
		if err := os.RemoveAll(retired); err != nil {
			return fmt.Errorf("remove retired snapshot: %w", err)
		}
	}
	return nil
}

func readArtifact(dir, name string, v any) error {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", entity.ErrSnapshotCorrupt, name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: decode %s: %v", entity.ErrSnapshotCorrupt, name, err)
	}
	return nil
}

func writeArtifact(dir, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
