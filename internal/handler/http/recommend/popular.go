package recommend

import (
	"net/http"

	"basket-recs/internal/handler/http/respond"
)

type PopularHandler struct{ Svc Service }

// ServeHTTP handles GET /products/popular. The list is computed offline
// during model builds, so this is a cheap read.
func (h PopularHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	products, err := h.Svc.PopularProducts(r.Context())
	if err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, PopularDTO{Products: products})
}
