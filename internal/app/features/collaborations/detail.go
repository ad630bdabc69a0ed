// internal/app/features/collaborations/detail.go
package collaborations

import (
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

type detailResponse struct {
	Collaboration *models.Collaboration `json:"collaboration"`
	Roles         []models.Role         `json:"roles"`
	OwnerName     string                `json:"owner_name"`
}

// ServeDetail handles GET /api/collaborations/{id}: the document, its
// roles in creation order, and the owner's display name.
func (h *Handler) ServeDetail(w http.ResponseWriter, r *http.Request) {
	id, err := collabID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "collaboration detail")
	defer cancel()

	collab, err := h.Collabs.GetByID(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	roles, err := h.Collabs.RolesFor(ctx, id)
	if err != nil {
		h.Log.Error("load roles failed", zap.String("collaboration_id", id.Hex()), zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}
	if roles == nil {
		roles = []models.Role{}
	}

	// A deleted owner leaves the name blank rather than failing the page.
	ownerName := ""
	if owner, err := h.Users.GetByID(ctx, collab.OwnerID); err == nil {
		ownerName = owner.FullName
	} else if err != mongo.ErrNoDocuments {
		h.Log.Warn("resolve owner failed", zap.String("collaboration_id", id.Hex()), zap.Error(err))
	}

	inputval.WriteJSON(w, http.StatusOK, detailResponse{
		Collaboration: collab,
		Roles:         roles,
		OwnerName:     ownerName,
	})
}

// ServeRoles handles GET /api/collaborations/{id}/roles.
func (h *Handler) ServeRoles(w http.ResponseWriter, r *http.Request) {
	id, err := collabID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "collaboration roles")
	defer cancel()

	if _, err := h.Collabs.GetByID(ctx, id); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	roles, err := h.Collabs.RolesFor(ctx, id)
	if err != nil {
		h.Log.Error("load roles failed", zap.String("collaboration_id", id.Hex()), zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}
	if roles == nil {
		roles = []models.Role{}
	}

	inputval.WriteJSON(w, http.StatusOK, map[string]any{"roles": roles})
}
