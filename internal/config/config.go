// Package config loads the recommender configuration from a YAML file
// with sane defaults. Both binaries share one file so the engine serving
// recommendations and the builder producing snapshots agree on the model
// parameters.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig controls how recommendations are computed at serve time.
type EngineConfig struct {
	// Neighbors is the number of most similar users whose purchase rows
	// are aggregated into candidate scores.
	Neighbors int `yaml:"neighbors"`

	// SeedProduct is recorded as the first purchase for users the model
	// has never seen, so they receive non-empty recommendations.
	SeedProduct string `yaml:"seed_product"`

	// DefaultTopN caps the recommendation list when the request does not
	// specify a size.
	DefaultTopN int `yaml:"default_top_n"`
}

// BuildConfig controls the offline model build.
type BuildConfig struct {
	// Rank is the number of latent dimensions kept by the factorization.
	Rank int `yaml:"rank"`

	// PopularTop is the size of the precomputed global popularity list.
	PopularTop int `yaml:"popular_top"`

	// BatchSize is the number of order lines aggregated per batch.
	BatchSize int `yaml:"batch_size"`

	// Workers is the number of concurrent aggregation workers.
	Workers int `yaml:"workers"`
}

// Config is the root configuration shared by the API server and the builder.
type Config struct {
	SnapshotDir string       `yaml:"snapshot_dir"`
	Engine      EngineConfig `yaml:"engine"`
	Build       BuildConfig  `yaml:"build"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		SnapshotDir: "data/snapshots",
		Engine: EngineConfig{
			Neighbors:   19,
			SeedProduct: "Bananas",
			DefaultTopN: 200,
		},
		Build: BuildConfig{
			Rank:       50,
			PopularTop: 350,
			BatchSize:  1_000_000,
			Workers:    4,
		},
	}
}

// Load reads the YAML file at path and overlays it on the defaults.
// An empty path returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from operator config
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that all numeric parameters are usable.
func (c Config) Validate() error {
	if c.SnapshotDir == "" {
		return errors.New("snapshot_dir is required")
	}
	if c.Engine.Neighbors <= 0 {
		return fmt.Errorf("engine.neighbors must be positive, got %d", c.Engine.Neighbors)
	}
	if c.Engine.DefaultTopN <= 0 {
		return fmt.Errorf("engine.default_top_n must be positive, got %d", c.Engine.DefaultTopN)
	}
	if c.Build.Rank <= 0 {
		return fmt.Errorf("build.rank must be positive, got %d", c.Build.Rank)
	}
	if c.Build.PopularTop <= 0 {
		return fmt.Errorf("build.popular_top must be positive, got %d", c.Build.PopularTop)
	}
	if c.Build.BatchSize <= 0 {
		return fmt.Errorf("build.batch_size must be positive, got %d", c.Build.BatchSize)
	}
	if c.Build.Workers <= 0 {
		return fmt.Errorf("build.workers must be positive, got %d", c.Build.Workers)
	}
	return nil
}
