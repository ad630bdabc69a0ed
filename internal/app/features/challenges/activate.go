// internal/app/features/challenges/activate.go
package challenges

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	challengestore "github.com/dalemusser/skillhub/internal/app/store/challenges"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/app/system/authz"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/limits"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

type activateRequest struct {
	ChallengeID string `json:"challengeId" validate:"required"`
}

// adminActor resolves the caller of a privileged RPC. A bearer token with
// the admin claim wins over the session; automation presents tokens, the
// dashboard presents an admin session.
func (h *Handler) adminActor(r *http.Request) (primitive.ObjectID, string, error) {
	if raw := auth.BearerToken(r); raw != "" {
		claims, err := h.Tokens.Parse(raw)
		if err != nil {
			return primitive.NilObjectID, "", apperr.Unauthenticated("invalid bearer token")
		}
		if !claims.Admin {
			return primitive.NilObjectID, "", apperr.PermissionDenied("admin claim required")
		}
		actorID, err := primitive.ObjectIDFromHex(claims.Subject)
		if err != nil {
			return primitive.NilObjectID, "", apperr.Unauthenticated("invalid bearer token")
		}
		return actorID, claims.Role, nil
	}

	role, _, userID, ok := authz.UserCtx(r)
	if !ok {
		return primitive.NilObjectID, "", apperr.Unauthenticated("sign in or present a bearer token")
	}
	if !authz.IsAdmin(r) {
		return primitive.NilObjectID, "", apperr.PermissionDenied("admin role required")
	}
	return userID, role, nil
}

// HandleActivate handles POST /api/admin/challenges/activate: moves one
// pending challenge live ahead of the hourly sweep, stamps activated_by,
// invalidates the cached board and announces the challenge to members.
func (h *Handler) HandleActivate(w http.ResponseWriter, r *http.Request) {
	actorID, actorRole, err := h.adminActor(r)
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	var req activateRequest
	if err := inputval.DecodeJSON(w, r, limits.MaxJSONBodySize, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	id, err := primitive.ObjectIDFromHex(req.ChallengeID)
	if err != nil {
		apperr.Write(w, h.Log, apperr.InvalidArgument("invalid challenge id"))
		return
	}

	ctx := r.Context()
	ch, err := h.Challenges.Activate(ctx, id, actorID, time.Now().UTC())
	if err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	h.AuditLog.ChallengeManuallyActivated(ctx, r, actorID, id, actorRole, string(ch.Type))
	h.Cache.Bump(ctx, challengestore.CacheScope)
	h.Notifier.ChallengesLive([]models.Challenge{*ch})

	h.Log.Info("challenge manually activated",
		zap.String("challenge_id", id.Hex()),
		zap.String("actor_id", actorID.Hex()),
		zap.String("type", string(ch.Type)))

	inputval.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}
