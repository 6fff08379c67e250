package recommend_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	recUC "basket-recs/internal/usecase/recommend"
)

/* ───────── スタブ実装 ───────── */

type stubEngine struct {
	recs    []string
	popular []string
	err     error

	gotUserID   string
	gotTopN     int
	gotProducts []string
}

func (s *stubEngine) Recommend(_ context.Context, userID string, topN int) ([]string, error) {
	s.gotUserID = userID
	s.gotTopN = topN
	return s.recs, s.err
}

func (s *stubEngine) RecordPurchase(_ context.Context, userID string, products []string) error {
	s.gotUserID = userID
	s.gotProducts = products
	return s.err
}

func (s *stubEngine) PopularProducts(_ context.Context) ([]string, error) {
	return s.popular, s.err
}

/* ───────── テストケース ───────── */

func TestGetRecommendations_Success(t *testing.T) {
	eng := &stubEngine{recs: []string{"Carrots", "Bread"}}
	svc := &recUC.Service{Engine: eng}

	got, err := svc.GetRecommendations(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("GetRecommendations: %v", err)
	}
	if diff := cmp.Diff([]string{"Carrots", "Bread"}, got); diff != "" {
		t.Errorf("recommendations (-want +got):\n%s", diff)
	}
	if eng.gotUserID != "u1" || eng.gotTopN != 5 {
		t.Errorf("engine called with (%q, %d), want (u1, 5)", eng.gotUserID, eng.gotTopN)
	}
}

func TestGetRecommendations_EmptyUserID(t *testing.T) {
	svc := &recUC.Service{Engine: &stubEngine{}}

	_, err := svc.GetRecommendations(context.Background(), "", 5)
	if !errors.Is(err, recUC.ErrEmptyUserID) {
		t.Fatalf("error = %v, want ErrEmptyUserID", err)
	}
}

func TestGetRecommendations_WrapsEngineError(t *testing.T) {
	boom := errors.New("store unavailable")
	svc := &recUC.Service{Engine: &stubEngine{err: boom}}

	_, err := svc.GetRecommendations(context.Background(), "u1", 5)
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapped %v", err, boom)
	}
}

func TestRecordPurchase_Validation(t *testing.T) {
	svc := &recUC.Service{Engine: &stubEngine{}}

	if err := svc.RecordPurchase(context.Background(), "", []string{"Apples"}); !errors.Is(err, recUC.ErrEmptyUserID) {
		t.Errorf("empty user error = %v, want ErrEmptyUserID", err)
	}
	if err := svc.RecordPurchase(context.Background(), "u1", nil); !errors.Is(err, recUC.ErrEmptyProducts) {
		t.Errorf("empty products error = %v, want ErrEmptyProducts", err)
	}
}

func TestRecordPurchase_PassesBatchThrough(t *testing.T) {
	eng := &stubEngine{}
	svc := &recUC.Service{Engine: eng}

	if err := svc.RecordPurchase(context.Background(), "u1", []string{"Apples", "Bread"}); err != nil {
		t.Fatalf("RecordPurchase: %v", err)
	}
	if diff := cmp.Diff([]string{"Apples", "Bread"}, eng.gotProducts); diff != "" {
		t.Errorf("products (-want +got):\n%s", diff)
	}
}

func TestPopularProducts(t *testing.T) {
	svc := &recUC.Service{Engine: &stubEngine{popular: []string{"Bananas"}}}

	got, err := svc.PopularProducts(context.Background())
	if err != nil {
		t.Fatalf("PopularProducts: %v", err)
	}
	if diff := cmp.Diff([]string{"Bananas"}, got); diff != "" {
		t.Errorf("popular (-want +got):\n%s", diff)
	}
}
