// internal/app/features/collaborations/update.go
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
)

// updateRoleRequest is one role in the submitted set. A temp id (or no id)
// creates the role; a durable id updates it. Persisted roles missing from
// the submission are deleted.
type updateRoleRequest struct {
	ID string `json:"id"`
	roleBody
}

type updateRequest struct {
	Title       string              `json:"title" validate:"required"`
	Description string              `json:"description" validate:"required"`
	Roles       []updateRoleRequest `json:"roles" validate:"dive"`
}

type updateResponse struct {
	ID              string            `json:"id"`
	TempAssignments map[string]string `json:"tempAssignments"`
}

// HandleUpdate handles PUT /api/collaborations/{id}: the full edit form.
// Title, description and the complete role set are applied in one
// transaction; the response maps each submitted temp id to the durable id
// it received so optimistic entries can be swapped client-side.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := collabID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "update collaboration")
	defer cancel()

	collab, err := h.Collabs.GetByID(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if !authz.CanManageCollaboration(r, collab.OwnerID) {
		apperr.Write(w, h.Log, apperr.PermissionDenied("only the owner or an admin can edit a collaboration"))
		return
	}

	var req updateRequest
	if err := inputval.DecodeJSON(w, r, limits.MaxCollaborationBodySize, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	in := collabstore.UpdateInput{
		Title:       req.Title,
		Description: htmlsanitize.Sanitize(req.Description),
		Roles:       make([]collabstore.UpdateRoleInput, len(req.Roles)),
	}
	for i, role := range req.Roles {
		in.Roles[i] = collabstore.UpdateRoleInput{ID: role.ID, RoleInput: role.input()}
	}

	res, err := h.Collabs.Update(ctx, id, in)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	fields := "title,description"
	if len(res.CreatedRoles) > 0 || len(res.DeletedRoleIDs) > 0 {
		fields += ",roles"
	}
	h.AuditLog.CollaborationUpdated(ctx, r, actorID, id, fields)
	h.Log.Info("collaboration updated",
		zap.String("collaboration_id", id.Hex()),
		zap.String("actor_id", actorID.Hex()),
		zap.Int("roles_created", len(res.CreatedRoles)),
		zap.Int("roles_deleted", len(res.DeletedRoleIDs)))

	out := updateResponse{ID: id.Hex(), TempAssignments: res.IDMap}
	if out.TempAssignments == nil {
		out.TempAssignments = map[string]string{}
	}
	inputval.WriteJSON(w, http.StatusOK, out)
}

// addRoleRequest is one new role; tempId, when present, is echoed back in
// the assignment map.
type addRoleRequest struct {
	TempID string `json:"tempId"`
	roleBody
}

type addRolesRequest struct {
	Roles []addRoleRequest `json:"roles" validate:"min=1,dive"`
}

type addRolesResponse struct {
	RoleIDs         []string          `json:"roleIds"`
	TempAssignments map[string]string `json:"tempAssignments"`
}

// HandleAddRoles handles POST /api/collaborations/{id}/roles: batch role
// creation under an existing collaboration, used by edit mode's optimistic
// single-role path. Roles are inserted in submission order, so assignments
// map positionally.
func (h *Handler) HandleAddRoles(w http.ResponseWriter, r *http.Request) {
	id, err := collabID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "add roles")
	defer cancel()

	collab, err := h.Collabs.GetByID(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if !authz.CanManageCollaboration(r, collab.OwnerID) {
		apperr.Write(w, h.Log, apperr.PermissionDenied("only the owner or an admin can add roles"))
		return
	}

	var req addRolesRequest
	if err := inputval.DecodeJSON(w, r, limits.MaxCollaborationBodySize, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	inputs := make([]collabstore.RoleInput, len(req.Roles))
	for i, role := range req.Roles {
		inputs[i] = role.input()
	}

	_, created, err := h.Collabs.CreateRoleHierarchy(ctx, id, inputs)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	for i := range created {
		h.AuditLog.RoleCreated(ctx, r, actorID, created[i].ID, id, created[i].Title)
	}

	assignments := make(map[string]string, len(req.Roles))
	for i, role := range req.Roles {
		if role.TempID != "" && i < len(created) {
			assignments[role.TempID] = created[i].ID.Hex()
		}
	}

	inputval.WriteJSON(w, http.StatusCreated, addRolesResponse{
		RoleIDs:         hexIDs(created),
		TempAssignments: assignments,
	})
}
