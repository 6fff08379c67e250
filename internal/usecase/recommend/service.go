package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"basket-recs/internal/observability/tracing"
)

// Engine is the recommendation engine surface the use case depends on.
type Engine interface {
	Recommend(ctx context.Context, userID string, topN int) ([]string, error)
	RecordPurchase(ctx context.Context, userID string, products []string) error
	PopularProducts(ctx context.Context) ([]string, error)
}

// Service provides the two boundary operations over the engine. It adds
// input validation, tracing spans, and logging; the algorithm itself
// lives in the engine.
type Service struct {
	Engine Engine
	Logger *slog.Logger
}

// GetRecommendations returns up to topN ranked product names for the
// user, excluding products already purchased. A non-positive topN lets
// the engine apply its default. Unseen users are provisioned by the
// engine, so this fails only on engine or persistence errors.
func (s *Service) GetRecommendations(ctx context.Context, userID string, topN int) ([]string, error) {
	if userID == "" {
		return nil, ErrEmptyUserID
	}

	ctx, span := tracing.GetTracer().Start(ctx, "recommend.get")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("top_n", topN),
	)

	out, err := s.Engine.Recommend(ctx, userID, topN)
	if err != nil {
		return nil, fmt.Errorf("get recommendations: %w", err)
	}
	span.SetAttributes(attribute.Int("results", len(out)))
	s.logger().DebugContext(ctx, "recommendations served",
		slog.String("user_id", userID),
		slog.Int("top_n", topN),
		slog.Int("results", len(out)))
	return out, nil
}

// RecordPurchase records a purchase batch for the user. Unknown product
// names inside the batch are skipped by the engine with a warning; the
// batch as a whole only fails on engine or persistence errors.
func (s *Service) RecordPurchase(ctx context.Context, userID string, products []string) error {
	if userID == "" {
		return ErrEmptyUserID
	}
	if len(products) == 0 {
		return ErrEmptyProducts
	}

	ctx, span := tracing.GetTracer().Start(ctx, "recommend.record_purchase")
	defer span.End()
	span.SetAttributes(
		attribute.String("user_id", userID),
		attribute.Int("batch_size", len(products)),
	)

	if err := s.Engine.RecordPurchase(ctx, userID, products); err != nil {
		return fmt.Errorf("record purchase: %w", err)
	}
	return nil
}

// PopularProducts returns the offline-computed global popularity list.
func (s *Service) PopularProducts(ctx context.Context) ([]string, error) {
	out, err := s.Engine.PopularProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("popular products: %w", err)
	}
	return out, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
