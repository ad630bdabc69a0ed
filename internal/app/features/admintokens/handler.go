// internal/app/features/admintokens/handler.go
package admintokens

import (
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/auditlog"
	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
)

// Handler mints short-lived bearer tokens for automation against the
// admin endpoints. Only an admin session can mint one; the token carries
// the admin claim and the minting user's role.
type Handler struct {
	Tokens   *auth.TokenManager
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(tokens *auth.TokenManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Tokens: tokens, AuditLog: audit, Log: logger}
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// HandleMint handles POST /api/admin/token.
func (h *Handler) HandleMint(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apperr.Write(w, h.Log, apperr.Unauthenticated("sign in required"))
		return
	}
	actorID, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		apperr.Write(w, h.Log, apperr.Unauthenticated("invalid session"))
		return
	}

	now := time.Now()
	token, err := h.Tokens.Issue(u.ID, u.Role, true)
	if err != nil {
		h.Log.Error("token mint failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	h.AuditLog.ServiceTokenIssued(r.Context(), r, actorID, u.Role, u.Role, true)
	h.Log.Info("admin token issued",
		zap.String("user_id", u.ID),
		zap.String("role", u.Role))

	inputval.WriteJSON(w, http.StatusOK, tokenResponse{
		Token:     token,
		ExpiresAt: now.Add(h.Tokens.TTL()).UTC(),
	})
}
