// internal/app/features/challenges/list.go
package challenges

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	challengestore "github.com/dalemusser/skillhub/internal/app/store/challenges"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/metrics"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

type listResponse struct {
	Challenges []models.Challenge `json:"challenges"`
}

// ServeList handles GET /api/challenges. Defaults to live challenges;
// ?status= and ?type= narrow the board. The filtered list is cached under
// the challenge version key, so reads after a sweep or activation never
// see a stale board.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	status := models.ChallengeStatus(query.Get("status"))
	if status == "" {
		status = models.ChallengeLive
	}
	switch status {
	case models.ChallengePending, models.ChallengeLive, models.ChallengeArchived:
	default:
		apperr.Write(w, h.Log, apperr.InvalidArgument("status must be pending, live or archived"))
		return
	}

	ctype := models.ChallengeType(query.Get("type"))
	if ctype != "" && !models.ValidChallengeType(ctype) {
		apperr.Write(w, h.Log, apperr.InvalidArgument("type must be weekly or monthly"))
		return
	}

	ctx := r.Context()
	key := h.Cache.VersionedKey(ctx, challengestore.CacheScope, fmt.Sprintf("list:%s:%s", ctype, status))

	var resp listResponse
	if h.Cache.GetJSON(ctx, key, &resp) {
		metrics.CacheHits.WithLabelValues("challenges").Inc()
		inputval.WriteJSON(w, http.StatusOK, resp)
		return
	}
	metrics.CacheMisses.WithLabelValues("challenges").Inc()

	list, err := h.Challenges.List(ctx, challengestore.Filter{Status: status, Type: ctype})
	if err != nil {
		h.Log.Error("list challenges failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}
	if list == nil {
		list = []models.Challenge{}
	}

	resp = listResponse{Challenges: list}
	h.Cache.SetJSON(ctx, key, resp)
	inputval.WriteJSON(w, http.StatusOK, resp)
}

// ServeDetail handles GET /api/challenges/{id}.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apperr.Write(w, h.Log, apperr.InvalidArgument("invalid challenge id"))
		return
	}

	ch, err := h.Challenges.GetByID(r.Context(), id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	inputval.WriteJSON(w, http.StatusOK, ch)
}
