// internal/app/features/notifications/handler.go
package notifications

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	notificationstore "github.com/dalemusser/skillhub/internal/app/store/notifications"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// Handler serves the signed-in user's notification inbox.
type Handler struct {
	Notifications *notificationstore.Store
	Log           *zap.Logger
}

func NewHandler(notifications *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Notifications: notifications, Log: logger}
}

func currentUserID(r *http.Request) (primitive.ObjectID, error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, apperr.Unauthenticated("sign in required")
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, apperr.Unauthenticated("invalid session")
	}
	return id, nil
}

// ServeList handles GET /api/notifications. ?unread=true restricts the
// list to unread entries; ?limit= caps the page (default 50, max 100).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	query := r.URL.Query()
	var limit int64
	if raw := query.Get("limit"); raw != "" {
		n, parseErr := strconv.ParseInt(raw, 10, 64)
		if parseErr != nil || n <= 0 {
			apperr.Write(w, h.Log, apperr.InvalidArgument("limit must be a positive integer"))
			return
		}
		limit = n
	}
	unreadOnly := query.Get("unread") == "true"

	ctx := r.Context()
	list, err := h.Notifications.ListByUser(ctx, userID, unreadOnly, limit)
	if err != nil {
		h.Log.Error("list notifications failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}
	unread, err := h.Notifications.UnreadCount(ctx, userID)
	if err != nil {
		h.Log.Error("unread count failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	if list == nil {
		list = []models.Notification{}
	}
	inputval.WriteJSON(w, http.StatusOK, map[string]any{
		"notifications": list,
		"unread_count":  unread,
	})
}

// HandleMarkRead handles POST /api/notifications/{id}/read.
func (h *Handler) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		apperr.Write(w, h.Log, apperr.InvalidArgument("invalid notification id"))
		return
	}

	if err := h.Notifications.MarkRead(r.Context(), userID, notificationID); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleMarkAllRead handles POST /api/notifications/read-all.
func (h *Handler) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUserID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	updated, err := h.Notifications.MarkAllRead(r.Context(), userID)
	if err != nil {
		h.Log.Error("mark all read failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	inputval.WriteJSON(w, http.StatusOK, map[string]any{"updated": updated})
}
