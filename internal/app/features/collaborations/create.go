// internal/app/features/collaborations/create.go
package collaborations

import (
	"net/http"

	"go.uber.org/zap"

	collabstore "github.com/dalemusser/skillhub/internal/app/store/collabs"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/authz"
	"github.com/dalemusser/skillhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/limits"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

type createRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	Roles       []roleBody `json:"roles" validate:"dive"`
}

type createResponse struct {
	ID      string                     `json:"id"`
	RoleIDs []string                   `json:"roleIds"`
	Status  models.CollaborationStatus `json:"status"`
}

// HandleCreate handles POST /api/collaborations. The signed-in caller
// becomes the owner; the collaboration and its initial role set are
// persisted in one transaction, so the response ids are all durable.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	_, _, ownerID, ok := authz.UserCtx(r)
	if !ok {
		apperr.Write(w, h.Log, apperr.Unauthenticated("sign in required"))
		return
	}

	var req createRequest
	if err := inputval.DecodeJSON(w, r, limits.MaxCollaborationBodySize, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	in := collabstore.CreateInput{
		Title:       req.Title,
		Description: htmlsanitize.Sanitize(req.Description),
		OwnerID:     ownerID,
		Roles:       make([]collabstore.RoleInput, len(req.Roles)),
	}
	for i, role := range req.Roles {
		in.Roles[i] = role.input()
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "create collaboration")
	defer cancel()

	collab, roles, err := h.Collabs.CreateWithRoles(ctx, in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	h.AuditLog.CollaborationCreated(ctx, r, ownerID, collab.ID, collab.Title, len(roles))
	h.Log.Info("collaboration created",
		zap.String("collaboration_id", collab.ID.Hex()),
		zap.String("owner_id", ownerID.Hex()),
		zap.Int("roles", len(roles)))

	inputval.WriteJSON(w, http.StatusCreated, createResponse{
		ID:      collab.ID.Hex(),
		RoleIDs: hexIDs(roles),
		Status:  collab.Status,
	})
}
