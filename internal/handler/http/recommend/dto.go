// Package recommend provides HTTP handlers for the recommendation endpoints.
// It includes handlers for fetching ranked recommendations, recording
// purchases, and listing globally popular products.
package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Service is the use case surface the handlers depend on.
type Service interface {
	GetRecommendations(ctx context.Context, userID string, topN int) ([]string, error)
	RecordPurchase(ctx context.Context, userID string, products []string) error
	PopularProducts(ctx context.Context) ([]string, error)
}

// RecommendationsDTO represents the JSON structure for a recommendation response.
type RecommendationsDTO struct {
	UserID          string   `json:"user_id"`
	Recommendations []string `json:"recommendations"`
}

// PopularDTO represents the JSON structure for the popular products response.
type PopularDTO struct {
	Products []string `json:"products"`
}

// productNames accepts either a single JSON string or an array of strings,
// so clients recording one purchase do not need to wrap it in a list.
type productNames []string

func (p *productNames) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*p = productNames{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("product_names must be a string or an array of strings")
	}
	*p = productNames(many)
	return nil
}

var errEmptyBatch = errors.New("product_names is required")
