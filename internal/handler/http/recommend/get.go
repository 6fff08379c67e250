package recommend

import (
	"errors"
	"net/http"
	"strconv"

	"basket-recs/internal/handler/http/pathutil"
	"basket-recs/internal/handler/http/respond"
	recUC "basket-recs/internal/usecase/recommend"
)

type GetHandler struct{ Svc Service }

// ServeHTTP handles GET /recommend/{user_id}. Unknown users are provisioned
// with a seed purchase and ranked like anyone else, so the endpoint only
// fails on malformed input or persistence errors. An optional top_n query
// parameter caps the result size.
func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID, err := pathutil.ExtractParam(r.URL.Path, "/recommend/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	topN := 0 // 0 はエンジン側のデフォルトに委ねる
	if raw := r.URL.Query().Get("top_n"); raw != "" {
		topN, err = strconv.Atoi(raw)
		if err != nil || topN <= 0 {
			respond.SafeError(w, http.StatusBadRequest,
				errors.New("top_n must be a positive integer"))
			return
		}
	}

	recs, err := h.Svc.GetRecommendations(r.Context(), userID, topN)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, recUC.ErrEmptyUserID) {
			code = http.StatusBadRequest
		}
		respond.SafeError(w, code, err)
		return
	}

	respond.JSON(w, http.StatusOK, RecommendationsDTO{
		UserID:          userID,
		Recommendations: recs,
	})
}
