package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appconfig "basket-recs/internal/config"
	hhttp "basket-recs/internal/handler/http"
	hauth "basket-recs/internal/handler/http/auth"
	"basket-recs/internal/handler/http/middleware"
	hrec "basket-recs/internal/handler/http/recommend"
	"basket-recs/internal/handler/http/requestid"
	snapstore "basket-recs/internal/infra/snapshot"
	"basket-recs/internal/observability/logging"
	"basket-recs/internal/observability/tracing"
	"basket-recs/internal/recommender"
	recUC "basket-recs/internal/usecase/recommend"
	"basket-recs/pkg/config"
)

func main() {
	logger := logging.NewLogger()
	validateJWTSecret(logger)

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
	if !store.Exists() {
		logger.Warn("no model snapshot found; serving will fail until the builder runs",
			slog.String("dir", cfg.SnapshotDir))
	}

	engine := recommender.New(store, recommender.Config{
		Neighbors:   cfg.Engine.Neighbors,
		SeedProduct: cfg.Engine.SeedProduct,
		DefaultTopN: cfg.Engine.DefaultTopN,
	}, logger)

	svc := &recUC.Service{Engine: engine, Logger: logger}

	handler := applyMiddleware(logger, setupRoutes(store, svc))
	runServer(logger, handler)
}

// validateJWTSecret validates the JWT_SECRET environment variable for security requirements.
func validateJWTSecret(logger *slog.Logger) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	// セキュリティ: 最小32文字（256ビット）を強制
	if len(secret) < 32 {
		logger.Error("JWT_SECRET must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
}

// setupRoutes registers all HTTP routes (public and protected).
func setupRoutes(store *snapstore.FileStore, svc *recUC.Service) *http.ServeMux {
	version := config.GetEnvString("VERSION", "dev")

	mux := http.NewServeMux()

	mux.Handle("GET  /health", hhttp.HealthHandler{Snapshots: store, Version: version})
	mux.Handle("GET  /health/ready", hhttp.ReadyHandler{Snapshots: store})
	mux.Handle("GET  /health/live", hhttp.LiveHandler{})
	mux.Handle("GET  /metrics", hhttp.MetricsHandler())

	mux.Handle("POST /auth/token", hauth.TokenHandler())

	hrec.Register(mux, svc)

	return mux
}

// applyMiddleware wraps the mux in the shared middleware chain. Order
// matters: CORS answers preflights before anything else runs, the request
// ID must exist before logging, and metrics/tracing wrap the innermost
// handlers so they observe final status codes.
func applyMiddleware(logger *slog.Logger, mux *http.ServeMux) http.Handler {
	corsConfig := middleware.LoadCORSConfig(logger)
	logger.Info("CORS configured",
		slog.Any("allowed_origins", corsConfig.AllowedOrigins),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Int("max_age", corsConfig.MaxAge))

	// レート制限: クライアントIPごとのトークンバケット
	limiter := hhttp.NewRateLimiter(
		config.GetEnvFloat("RATE_LIMIT_RPS", 50),
		config.GetEnvInt("RATE_LIMIT_BURST", 100),
	)

	var handler http.Handler = mux
	handler = hhttp.MetricsMiddleware(handler)
	handler = hhttp.Logging(logger)(handler)
	handler = tracing.Middleware(handler) // ログに trace_id を出すため Logging より外側
	handler = hhttp.Recover(logger)(handler)
	handler = hhttp.LimitRequestBody(1 << 20)(handler) // 1 MiB
	handler = limiter.Limit(handler)
	handler = requestid.Middleware(handler)
	handler = middleware.CORS(corsConfig)(handler)
	return handler
}

// runServer starts the HTTP server and blocks until shutdown.
func runServer(logger *slog.Logger, handler http.Handler) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addr := config.GetEnvString("LISTEN_ADDR", ":8080")
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
