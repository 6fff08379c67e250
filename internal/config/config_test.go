package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"basket-recs/internal/config"
)

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := config.Default()
	if cfg != def {
		t.Errorf("Load(\"\") = %+v, want defaults %+v", cfg, def)
	}
}

func TestLoad_OverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
snapshot_dir: /var/lib/recs
engine:
  neighbors: 5
  seed_product: Milk
build:
  rank: 8
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SnapshotDir != "/var/lib/recs" {
		t.Errorf("snapshot_dir = %q", cfg.SnapshotDir)
	}
	if cfg.Engine.Neighbors != 5 || cfg.Engine.SeedProduct != "Milk" {
		t.Errorf("engine = %+v", cfg.Engine)
	}
	if cfg.Build.Rank != 8 {
		t.Errorf("build.rank = %d, want 8", cfg.Build.Rank)
	}
	// ファイルに無い値はデフォルトが残る
	if cfg.Engine.DefaultTopN != config.Default().Engine.DefaultTopN {
		t.Errorf("default_top_n = %d, want default", cfg.Engine.DefaultTopN)
	}
	if cfg.Build.PopularTop != config.Default().Build.PopularTop {
		t.Errorf("popular_top = %d, want default", cfg.Build.PopularTop)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  neighbors: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for negative neighbors")
	}
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	cfg.SnapshotDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("empty snapshot_dir accepted")
	}

	cfg = config.Default()
	cfg.Build.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero workers accepted")
	}
}
