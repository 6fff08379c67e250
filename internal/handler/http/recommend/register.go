package recommend

import (
	"net/http"

	"basket-recs/internal/handler/http/auth"
)

// Register registers all recommendation HTTP handlers with the given mux.
// Reads and writes both require authentication via the auth middleware;
// the purchase feed mutates the persisted interaction matrix.
func Register(mux *http.ServeMux, svc Service) {
	mux.Handle("GET  /recommend/", auth.Authz(GetHandler{Svc: svc}))
	mux.Handle("GET  /products/popular", auth.Authz(PopularHandler{Svc: svc}))

	mux.Handle("POST /purchase", auth.Authz(PurchaseHandler{Svc: svc}))
}
