package recommend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	hrec "basket-recs/internal/handler/http/recommend"
	recUC "basket-recs/internal/usecase/recommend"
)

/* ───────── スタブ実装 ───────── */

type stubService struct {
	recs    []string
	popular []string
	err     error

	gotUserID   string
	gotTopN     int
	gotProducts []string
}

func (s *stubService) GetRecommendations(_ context.Context, userID string, topN int) ([]string, error) {
	s.gotUserID = userID
	s.gotTopN = topN
	return s.recs, s.err
}

func (s *stubService) RecordPurchase(_ context.Context, userID string, products []string) error {
	s.gotUserID = userID
	s.gotProducts = products
	return s.err
}

func (s *stubService) PopularProducts(_ context.Context) ([]string, error) {
	return s.popular, s.err
}

/* ───────── GET /recommend/{user_id} ───────── */

func TestGetHandler_Success(t *testing.T) {
	stub := &stubService{recs: []string{"Carrots", "Bread"}}
	h := hrec.GetHandler{Svc: stub}

	req := httptest.NewRequest(http.MethodGet, "/recommend/u42", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		UserID          string   `json:"user_id"`
		Recommendations []string `json:"recommendations"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.UserID != "u42" {
		t.Errorf("user_id = %q, want u42", body.UserID)
	}
	if diff := cmp.Diff([]string{"Carrots", "Bread"}, body.Recommendations); diff != "" {
		t.Errorf("recommendations (-want +got):\n%s", diff)
	}
	if stub.gotTopN != 0 {
		t.Errorf("topN = %d, want 0 (engine default)", stub.gotTopN)
	}
}

func TestGetHandler_TopNQuery(t *testing.T) {
	stub := &stubService{recs: []string{"Carrots"}}
	h := hrec.GetHandler{Svc: stub}

	req := httptest.NewRequest(http.MethodGet, "/recommend/u42?top_n=7", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if stub.gotTopN != 7 {
		t.Errorf("topN = %d, want 7", stub.gotTopN)
	}
}

func TestGetHandler_InvalidTopN(t *testing.T) {
	for _, raw := range []string{"abc", "-1", "0"} {
		req := httptest.NewRequest(http.MethodGet, "/recommend/u42?top_n="+raw, nil)
		rec := httptest.NewRecorder()
		hrec.GetHandler{Svc: &stubService{}}.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("top_n=%q: status = %d, want 400", raw, rec.Code)
		}
	}
}

func TestGetHandler_MissingUserID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/recommend/", nil)
	rec := httptest.NewRecorder()
	hrec.GetHandler{Svc: &stubService{}}.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetHandler_ServiceError(t *testing.T) {
	stub := &stubService{err: errors.New("snapshot unreadable")}
	req := httptest.NewRequest(http.MethodGet, "/recommend/u42", nil)
	rec := httptest.NewRecorder()
	hrec.GetHandler{Svc: stub}.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	// 内部エラーの詳細はレスポンスに漏れない
	if strings.Contains(rec.Body.String(), "snapshot unreadable") {
		t.Error("internal error detail leaked to response body")
	}
}

/* ───────── POST /purchase ───────── */

func TestPurchaseHandler_ArrayBody(t *testing.T) {
	stub := &stubService{}
	body := `{"user_id":"u42","product_names":["Apples","Bread"]}`
	req := httptest.NewRequest(http.MethodPost, "/purchase", strings.NewReader(body))
	rec := httptest.NewRecorder()
	hrec.PurchaseHandler{Svc: stub}.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if diff := cmp.Diff([]string{"Apples", "Bread"}, stub.gotProducts); diff != "" {
		t.Errorf("products (-want +got):\n%s", diff)
	}
}

func TestPurchaseHandler_SingleStringBody(t *testing.T) {
	stub := &stubService{}
	body := `{"user_id":"u42","product_names":"Apples"}`
	req := httptest.NewRequest(http.MethodPost, "/purchase", strings.NewReader(body))
	rec := httptest.NewRecorder()
	hrec.PurchaseHandler{Svc: stub}.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if diff := cmp.Diff([]string{"Apples"}, stub.gotProducts); diff != "" {
		t.Errorf("products (-want +got):\n%s", diff)
	}
}

func TestPurchaseHandler_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{user_id}`},
		{"missing user", `{"product_names":["Apples"]}`},
		{"missing products", `{"user_id":"u42"}`},
		{"empty products", `{"user_id":"u42","product_names":[]}`},
		{"wrong type", `{"user_id":"u42","product_names":42}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/purchase", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			hrec.PurchaseHandler{Svc: &stubService{}}.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestPurchaseHandler_ServiceValidationError(t *testing.T) {
	stub := &stubService{err: recUC.ErrEmptyProducts}
	body := `{"user_id":"u42","product_names":["Apples"]}`
	req := httptest.NewRequest(http.MethodPost, "/purchase", strings.NewReader(body))
	rec := httptest.NewRecorder()
	hrec.PurchaseHandler{Svc: stub}.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

/* ───────── GET /products/popular ───────── */

func TestPopularHandler(t *testing.T) {
	stub := &stubService{popular: []string{"Bananas", "Apples"}}
	req := httptest.NewRequest(http.MethodGet, "/products/popular", nil)
	rec := httptest.NewRecorder()
	hrec.PopularHandler{Svc: stub}.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Products []string `json:"products"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if diff := cmp.Diff([]string{"Bananas", "Apples"}, body.Products); diff != "" {
		t.Errorf("products (-want +got):\n%s", diff)
	}
}
