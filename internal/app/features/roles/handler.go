// internal/app/features/roles/handler.go

// Package roles serves the role lifecycle endpoints: descriptive edits,
// deletion, and the status transitions (fill, completion handshake,
// abandon). Every operation loads the role and its collaboration first;
// the collaboration owner is the authority for most of them.
package roles

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	collabstore "github.com/dalemusser/skillhub/internal/app/store/collabs"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/auditlog"
	"github.com/dalemusser/skillhub/internal/app/system/notify"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

type Handler struct {
	Collabs  *collabstore.Store
	AuditLog *auditlog.Logger
	Notifier *notify.Notifier
	Log      *zap.Logger
}

func NewHandler(
	collabs *collabstore.Store,
	audit *auditlog.Logger,
	notifier *notify.Notifier,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Collabs:  collabs,
		AuditLog: audit,
		Notifier: notifier,
		Log:      logger,
	}
}

func roleID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidArgument("invalid role id")
	}
	return id, nil
}

// load fetches a role together with its parent collaboration.
func (h *Handler) load(ctx context.Context, id primitive.ObjectID) (*models.Role, *models.Collaboration, error) {
	role, err := h.Collabs.GetRole(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	collab, err := h.Collabs.GetByID(ctx, role.CollaborationID)
	if err != nil {
		return nil, nil, err
	}
	return role, collab, nil
}
