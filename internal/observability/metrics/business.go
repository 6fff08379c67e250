// Package metrics provides business-level Prometheus metrics for the
// recommendation engine. HTTP-level metrics live in the handler layer;
// this package covers the engine and build pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecommendationsServed counts completed recommendation requests.
	RecommendationsServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recommendations_served_total",
		Help: "Total number of recommendation requests served",
	})

	// RecommendationSize observes the number of products returned per
	// recommendation. Short results indicate sparse neighborhoods.
	RecommendationSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_result_size",
		Help:    "Number of products returned per recommendation",
		Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
	})

	// PurchasesRecorded counts recorded purchase cells (per product, not
	// per batch).
	PurchasesRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_recorded_total",
		Help: "Total number of product purchases recorded",
	})

	// UnknownProductsSkipped counts product names rejected because they
	// are absent from the trained vocabulary.
	UnknownProductsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unknown_products_skipped_total",
		Help: "Total number of unknown product names skipped during purchase recording",
	})

	// UsersProvisioned counts users auto-created with the seed purchase.
	UsersProvisioned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "users_provisioned_total",
		Help: "Total number of users auto-provisioned on first encounter",
	})

	// SnapshotLoadDuration observes snapshot load latency. The engine
	// reloads the snapshot on every recommendation request, so this is
	// on the hot path.
	SnapshotLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_load_duration_seconds",
		Help:    "Snapshot load duration in seconds",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	})

	// SnapshotSaveDuration observes snapshot save latency.
	SnapshotSaveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "snapshot_save_duration_seconds",
		Help:    "Snapshot save duration in seconds",
		Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
	})

	// ModelBuildsTotal counts offline model build runs by outcome.
	ModelBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "model_builds_total",
		Help: "Total number of offline model build runs",
	}, []string{"status"})

	// ModelBuildDuration observes end-to-end build duration.
	ModelBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "model_build_duration_seconds",
		Help:    "Offline model build duration in seconds",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})
)
