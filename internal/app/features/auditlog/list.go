// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/store/audit"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// eventItem is a single audit event with actor and target names resolved.
type eventItem struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	Category        string            `json:"category"`
	EventType       string            `json:"event_type"`
	ActorID         string            `json:"actor_id,omitempty"`
	ActorName       string            `json:"actor_name,omitempty"`
	TargetID        string            `json:"target_id,omitempty"`
	TargetName      string            `json:"target_name,omitempty"`
	CollaborationID string            `json:"collaboration_id,omitempty"`
	IP              string            `json:"ip,omitempty"`
	Success         bool              `json:"success"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	Details         map[string]string `json:"details,omitempty"`
}

type listResponse struct {
	Events []eventItem `json:"events"`
	Total  int64       `json:"total"`
}

// ServeList handles GET /api/admin/audit. Filters: ?category= restricts
// to one event category, ?q= matches an event type exactly, ?after= and
// ?before= (RFC 3339) bound the time window. Results come back newest
// first, so ?before= set to the oldest timestamp of the previous page
// walks the log backwards.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit list")
	defer cancel()

	query := r.URL.Query()
	filter := audit.QueryFilter{Limit: defaultPageSize}

	if category := strings.TrimSpace(query.Get("category")); category != "" {
		switch category {
		case audit.CategoryAuth, audit.CategoryAdmin, audit.CategoryCollab:
			filter.Category = category
		default:
			apperr.Write(w, h.Log, apperr.InvalidArgument("unknown audit category"))
			return
		}
	}
	filter.EventType = strings.TrimSpace(query.Get("q"))

	if raw := query.Get("after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperr.Write(w, h.Log, apperr.InvalidArgument("after must be an RFC 3339 timestamp"))
			return
		}
		filter.StartTime = &t
	}
	if raw := query.Get("before"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			apperr.Write(w, h.Log, apperr.InvalidArgument("before must be an RFC 3339 timestamp"))
			return
		}
		filter.EndTime = &t
	}
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			apperr.Write(w, h.Log, apperr.InvalidArgument("limit must be a positive integer"))
			return
		}
		if n > maxPageSize {
			n = maxPageSize
		}
		filter.Limit = n
	}

	events, err := h.Audit.Query(ctx, filter)
	if err != nil {
		h.Log.Error("audit query failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}
	total, err := h.Audit.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("audit count failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	userNames := h.resolveUserNames(ctx, events)

	items := make([]eventItem, 0, len(events))
	for _, e := range events {
		item := eventItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
			item.ActorName = userNames[*e.ActorID]
		}
		if e.UserID != nil {
			item.TargetID = e.UserID.Hex()
			item.TargetName = userNames[*e.UserID]
		}
		if e.CollaborationID != nil {
			item.CollaborationID = e.CollaborationID.Hex()
		}
		items = append(items, item)
	}

	inputval.WriteJSON(w, http.StatusOK, listResponse{Events: items, Total: total})
}

// resolveUserNames batch-fetches full names for every actor and target ID
// in the page. Missing users (deleted accounts) simply resolve to "".
func (h *Handler) resolveUserNames(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	for _, e := range events {
		if e.ActorID != nil {
			seen[*e.ActorID] = struct{}{}
		}
		if e.UserID != nil {
			seen[*e.UserID] = struct{}{}
		}
	}

	names := make(map[primitive.ObjectID]string, len(seen))
	if len(seen) == 0 {
		return names
	}

	ids := make([]primitive.ObjectID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to resolve user names for audit list", zap.Error(err))
		return names
	}
	for _, u := range users {
		names[u.ID] = u.FullName
	}
	return names
}
