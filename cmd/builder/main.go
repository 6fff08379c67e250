// The builder trains the recommendation model from historical order data
// and writes the resulting snapshot for the API server to pick up. It runs
// once by default; with BUILD_SCHEDULE set it stays resident and rebuilds
// on a cron schedule so the model keeps absorbing recorded purchases.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	appconfig "basket-recs/internal/config"
	"basket-recs/internal/infra/builder"
	"basket-recs/internal/infra/db"
	"basket-recs/internal/infra/orders"
	snapstore "basket-recs/internal/infra/snapshot"
	"basket-recs/internal/observability/logging"
	"basket-recs/pkg/config"
)

func main() {
	logger := logging.NewLogger()

	cfg, err := appconfig.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := snapstore.NewFileStore(cfg.SnapshotDir)
	if err != nil {
		logger.Error("failed to open snapshot store",
			slog.String("dir", cfg.SnapshotDir),
			slog.Any("error", err))
		os.Exit(1)
	}

	b := builder.New(newSource(logger), store, builder.Config{
		Rank:       cfg.Build.Rank,
		PopularTop: cfg.Build.PopularTop,
		BatchSize:  cfg.Build.BatchSize,
		Workers:    cfg.Build.Workers,
	}, logger)

	schedule := os.Getenv("BUILD_SCHEDULE")
	if schedule == "" {
		runOnce(logger, b)
		return
	}
	runScheduled(logger, b, schedule)
}

// newSource selects the order data source. DATABASE_URL wins when both
// are configured; CSV exports are the offline fallback.
func newSource(logger *slog.Logger) orders.Source {
	if os.Getenv("DATABASE_URL") != "" {
		logger.Info("using postgres order source")
		return orders.NewPostgresSource(db.Open())
	}

	dir := config.GetEnvString("ORDERS_DIR", "data/orders")
	logger.Info("using csv order source", slog.String("dir", dir))
	return orders.NewCSVSource(dir)
}

func runOnce(logger *slog.Logger, b *builder.Builder) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := b.Build(ctx); err != nil {
		logger.Error("model build failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("model build completed")
}

func runScheduled(logger *slog.Logger, b *builder.Builder, schedule string) {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 6*time.Hour)
		defer cancel()
		if err := b.Build(ctx); err != nil {
			logger.Error("scheduled model build failed", slog.Any("error", err))
			return
		}
		logger.Info("scheduled model build completed")
	})
	if err != nil {
		logger.Error("invalid build schedule",
			slog.String("schedule", schedule),
			slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("build scheduler starting", slog.String("schedule", schedule))
	c.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("stopping build scheduler...")

	// 実行中のビルドが終わるまで待つ
	<-c.Stop().Done()
	logger.Info("build scheduler stopped")
}
