// internal/app/features/collaborations/list.go
package collaborations

import (
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/store/queries/collabqueries"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/paging"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

type listResponse struct {
	Collaborations []collabqueries.CollabListItem `json:"collaborations"`
	Total          int64                          `json:"total"`
	HasPrev        bool                           `json:"has_prev"`
	HasNext        bool                           `json:"has_next"`
	PrevCursor     string                         `json:"prev_cursor,omitempty"`
	NextCursor     string                         `json:"next_cursor,omitempty"`
}

// ServeList handles GET /api/collaborations: the public board. ?q= is a
// case-insensitive title prefix, ?status= narrows to one derived status,
// and ?before=/?after= are keyset cursors over (title, id). Total counts
// the whole filtered set, not the returned page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filter := collabqueries.ListFilter{
		SearchQuery: strings.TrimSpace(query.Get("q")),
	}
	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status := models.CollaborationStatus(strings.ToUpper(raw))
		if !models.ValidCollaborationStatus(status) {
			apperr.Write(w, h.Log, apperr.InvalidArgument("status must be RECRUITING, IN_PROGRESS, COMPLETED or ABANDONED"))
			return
		}
		filter.Status = status
	}

	before, after := paging.ParseCursors(r)
	cfg := paging.ConfigureKeyset(before, after)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "collaboration list")
	defer cancel()

	res, err := collabqueries.ListCollaborations(ctx, h.DB, filter, cfg)
	if err != nil {
		h.Log.Error("collaboration list failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	items := res.Items
	page := paging.TrimPage(&items, before, after)
	if cfg.Direction == paging.Backward {
		paging.Reverse(items)
	}

	prev, next := paging.BuildCursors(items,
		func(it collabqueries.CollabListItem) string { return it.TitleCI },
		func(it collabqueries.CollabListItem) primitive.ObjectID { return it.ID })

	resp := listResponse{
		Collaborations: items,
		Total:          res.Total,
		HasPrev:        page.HasPrev,
		HasNext:        page.HasNext,
	}
	if page.HasPrev {
		resp.PrevCursor = prev
	}
	if page.HasNext {
		resp.NextCursor = next
	}
	if resp.Collaborations == nil {
		resp.Collaborations = []collabqueries.CollabListItem{}
	}

	inputval.WriteJSON(w, http.StatusOK, resp)
}
