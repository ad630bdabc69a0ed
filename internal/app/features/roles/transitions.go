// internal/app/features/roles/transitions.go
package roles

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/authz"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// HandleFill handles POST /api/roles/{id}/fill: the caller takes the open
// role. The owner is notified.
func (h *Handler) HandleFill(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	_, _, userID, ok := authz.UserCtx(r)
	if !ok {
		apperr.Write(w, h.Log, apperr.Unauthenticated("sign in required"))
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "fill role")
	defer cancel()

	_, collab, err := h.load(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	filled, err := h.Collabs.FillRole(ctx, id, userID)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	h.Notifier.RoleEvent(models.RoleEventFilled, collab, filled, collab.OwnerID)
	h.AuditLog.RoleFilled(ctx, r, userID, id, collab.ID, userID)

	inputval.WriteJSON(w, http.StatusOK, filled)
}

// HandleRequestCompletion handles POST /api/roles/{id}/request-completion:
// the assignee asks the owner to confirm the work is done.
func (h *Handler) HandleRequestCompletion(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "request completion")
	defer cancel()

	role, collab, err := h.load(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if !authz.CanActOnAssignment(r, role.AssigneeID) {
		apperr.Write(w, h.Log, apperr.PermissionDenied("only the assignee can request completion"))
		return
	}

	updated, err := h.Collabs.RequestCompletion(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.RoleCompletionRequested(ctx, r, actorID, id, collab.ID)

	inputval.WriteJSON(w, http.StatusOK, updated)
}

// HandleCancelCompletion handles DELETE /api/roles/{id}/request-completion:
// the assignee withdraws the request, or the owner declines it.
func (h *Handler) HandleCancelCompletion(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "cancel completion request")
	defer cancel()

	role, collab, err := h.load(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if !authz.CanManageCollaboration(r, collab.OwnerID) && !authz.CanActOnAssignment(r, role.AssigneeID) {
		apperr.Write(w, h.Log, apperr.PermissionDenied("only the owner or the assignee can cancel the request"))
		return
	}

	if err := h.Collabs.CancelCompletionRequest(ctx, id); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	inputval.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// HandleComplete handles POST /api/roles/{id}/complete: the owner (or an
// admin) confirms the role's work. The assignee is notified.
func (h *Handler) HandleComplete(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "complete role")
	defer cancel()

	_, collab, err := h.load(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if !authz.CanManageCollaboration(r, collab.OwnerID) {
		apperr.Write(w, h.Log, apperr.PermissionDenied("only the owner or an admin can complete a role"))
		return
	}

	completed, err := h.Collabs.CompleteRole(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	if completed.AssigneeID != nil {
		h.Notifier.RoleEvent(models.RoleEventCompleted, collab, completed, *completed.AssigneeID)
	}
	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.RoleCompleted(ctx, r, actorID, id, collab.ID)

	inputval.WriteJSON(w, http.StatusOK, completed)
}

// HandleAbandon handles POST /api/roles/{id}/abandon: the assignee quits,
// or the owner retires the role. Both parties are notified; the audit
// entry records which status the role left.
func (h *Handler) HandleAbandon(w http.ResponseWriter, r *http.Request) {
	id, err := roleID(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "abandon role")
	defer cancel()

	role, collab, err := h.load(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}
	if !authz.CanManageCollaboration(r, collab.OwnerID) && !authz.CanActOnAssignment(r, role.AssigneeID) {
		apperr.Write(w, h.Log, apperr.PermissionDenied("only the owner, an admin or the assignee can abandon a role"))
		return
	}

	abandoned, err := h.Collabs.AbandonRole(ctx, id)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	recipients := []primitive.ObjectID{collab.OwnerID}
	if role.AssigneeID != nil {
		recipients = append(recipients, *role.AssigneeID)
	}
	h.Notifier.RoleEvent(models.RoleEventAbandoned, collab, abandoned, recipients...)

	_, _, actorID, _ := authz.UserCtx(r)
	h.AuditLog.RoleAbandoned(ctx, r, actorID, id, collab.ID, string(role.Status))

	inputval.WriteJSON(w, http.StatusOK, abandoned)
}
