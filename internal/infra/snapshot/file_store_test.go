package snapshot_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"basket-recs/internal/domain/entity"
	"basket-recs/internal/infra/snapshot"
	"basket-recs/internal/recommender"
	"basket-recs/internal/recommender/encoding"
	"basket-recs/internal/recommender/factorize"
	"basket-recs/internal/recommender/matrix"
)

/* ───────── フィクスチャ ───────── */

func fixtureSnapshot(t *testing.T) *recommender.Snapshot {
	t.Helper()
	users, err := encoding.NewRegistry([]string{"u0", "u1"})
	if err != nil {
		t.Fatalf("user registry: %v", err)
	}
	products, err := encoding.NewRegistry([]string{"Apples", "Bananas", "Carrots"})
	if err != nil {
		t.Fatalf("product registry: %v", err)
	}

	l := matrix.NewLIL(2, 3)
	for _, cell := range [][2]int{{0, 0}, {0, 2}, {1, 1}} {
		if err := l.Set(cell[0], cell[1], 1); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	inter := l.ToCSR()

	model := factorize.NewTruncatedSVD(2)
	if err := model.Fit(inter); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	return &recommender.Snapshot{
		Users:           users,
		Products:        products,
		Interactions:    inter,
		Model:           model,
		PopularProducts: []string{"Bananas", "Apples"},
	}
}

/* ───────── テストケース ───────── */

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	want := fixtureSnapshot(t)

	if store.Exists() {
		t.Fatal("Exists() = true before first save")
	}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !store.Exists() {
		t.Fatal("Exists() = false after save")
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := got.Validate(); err != nil {
		t.Fatalf("loaded snapshot invalid: %v", err)
	}

	if diff := cmp.Diff(want.Users.IDs(), got.Users.IDs()); diff != "" {
		t.Errorf("users (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Products.IDs(), got.Products.IDs()); diff != "" {
		t.Errorf("products (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Interactions, got.Interactions); diff != "" {
		t.Errorf("matrix (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.PopularProducts, got.PopularProducts); diff != "" {
		t.Errorf("popular products (-want +got):\n%s", diff)
	}
	if got.Model.Rank != want.Model.Rank || got.Model.NumFeatures != want.Model.NumFeatures {
		t.Errorf("model shape = rank %d features %d, want rank %d features %d",
			got.Model.Rank, got.Model.NumFeatures, want.Model.Rank, want.Model.NumFeatures)
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	_, err = store.Load(context.Background())
	if !errors.Is(err, entity.ErrModelNotLoaded) {
		t.Fatalf("error = %v, want ErrModelNotLoaded", err)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := snapshot.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()
	if err := store.Save(ctx, fixtureSnapshot(t)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	// アーティファクトを壊す
	path := filepath.Join(dir, "current", "sparse_matrix.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt artifact: %v", err)
	}

	_, err = store.Load(ctx)
	if !errors.Is(err, entity.ErrSnapshotCorrupt) {
		t.Fatalf("error = %v, want ErrSnapshotCorrupt", err)
	}
}

func TestFileStore_SaveReplacesAtomically(t *testing.T) {
	dir := t.TempDir()
	store, err := snapshot.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	first := fixtureSnapshot(t)
	if err := store.Save(ctx, first); err != nil {
		t.Fatalf("Save(first): %v", err)
	}

	second := fixtureSnapshot(t)
	second.PopularProducts = []string{"Carrots"}
	if err := store.Save(ctx, second); err != nil {
		t.Fatalf("Save(second): %v", err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if diff := cmp.Diff([]string{"Carrots"}, got.PopularProducts); diff != "" {
		t.Errorf("popular products (-want +got):\n%s", diff)
	}

	// staging / retired ディレクトリが残っていないこと
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "current" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("store root = %v, want only [current]", names)
	}
}

func TestFileStore_SaveRejectsInvalidSnapshot(t *testing.T) {
	store, err := snapshot.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	snap := fixtureSnapshot(t)
	snap.Model = factorize.NewTruncatedSVD(2) // 未学習

	err = store.Save(context.Background(), snap)
	if !errors.Is(err, entity.ErrSnapshotCorrupt) {
		t.Fatalf("error = %v, want ErrSnapshotCorrupt", err)
	}
}

func TestNewFileStore_EmptyDir(t *testing.T) {
	if _, err := snapshot.NewFileStore(""); err == nil {
		t.Fatal("expected error for empty root dir")
	}
}
