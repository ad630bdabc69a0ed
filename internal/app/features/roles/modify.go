// internal/app/features/roles/modify.go
package roles

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
)

type modifyRequest struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	RequiredSkills  []string `json:"requiredSkills" validate:"min=1"`
	PreferredSkills []string `json:"preferredSkills"`
}

// HandleModify handles PATCH /api/roles/{id}: replaces the descriptive
// fields. Status and assignee are only reachable through the transition
// endpoints.
func (h *Handler) HandleModify(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "modify role")
	defer cancel()

	_, collab, err := h.load(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if !authz.CanManageCollaboration(r, collab.OwnerID) {
		apperr.Write(w, h.Log, apperr.PermissionDenied("only the owner or an admin can edit roles"))
		return
	}

	var req modifyRequest
	if err := inputval.DecodeJSON(w, r, limits.MaxJSONBodySize, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	err = h.Collabs.ModifyRole(ctx, id, collabstore.RoleFields{
		Title:           req.Title,
		Description:     htmlsanitize.Sanitize(req.Description),
		RequiredSkills:  req.RequiredSkills,
		PreferredSkills: req.PreferredSkills,
	})
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.RoleUpdated(ctx, r, actorID, id, collab.ID, "title,description,skills")

	updated, err := h.Collabs.GetRole(ctx, id)
	if err != nil {
		h.Log.Error("reload role failed", zap.String("role_id", id.Hex()), zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}
	inputval.WriteJSON(w, http.StatusOK, updated)
}

// HandleDelete handles DELETE /api/roles/{id}. The parent's counters are
// settled in the same transaction as the delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete role")
	defer cancel()

	role, collab, err := h.load(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if !authz.CanManageCollaboration(r, collab.OwnerID) {
		apperr.Write(w, h.Log, apperr.PermissionDenied("only the owner or an admin can delete roles"))
		return
	}

	if err := h.Collabs.DeleteRole(ctx, id); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.RoleDeleted(ctx, r, actorID, id, collab.ID, role.Title)
	h.Log.Info("role deleted",
		zap.String("role_id", id.Hex()),
		zap.String("collaboration_id", collab.ID.Hex()),
		zap.String("actor_id", actorID.Hex()))

	inputval.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
