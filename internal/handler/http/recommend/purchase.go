package recommend

import (
	"encoding/json"
	"errors"
	"net/http"

	"basket-recs/internal/handler/http/respond"
	recUC "basket-recs/internal/usecase/recommend"
)

type PurchaseHandler struct{ Svc Service }

// ServeHTTP handles POST /purchase. The body names a user and one or more
// purchased products; recording is idempotent, so replaying a batch is
// harmless. Product names absent from the trained catalog are skipped
// rather than failing the batch.
func (h PurchaseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string       `json:"user_id"`
		Products productNames `json:"product_names"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == "" {
		respond.SafeError(w, http.StatusBadRequest,
			errors.New("user_id is required"))
		return
	}
	if len(req.Products) == 0 {
		respond.SafeError(w, http.StatusBadRequest, errEmptyBatch)
		return
	}

	if err := h.Svc.RecordPurchase(r.Context(), req.UserID, req.Products); err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, recUC.ErrEmptyUserID) || errors.Is(err, recUC.ErrEmptyProducts) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
