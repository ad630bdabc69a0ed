// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/features/userinfo"
	loginstore "github.com/dalemusser/skillhub/internal/app/store/logins"
	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/auditlog"
	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/app/system/authutil"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/limits"
	"github.com/dalemusser/skillhub/internal/app/system/ratelimit"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// Handler owns the password sign-in flow. Google accounts are turned away
// here and directed to the OAuth flow instead.
type Handler struct {
	Users      *userstore.Store
	Logins     *loginstore.Store
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

// NewHandler creates a new login handler.
func NewHandler(
	users *userstore.Store,
	logins *loginstore.Store,
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	limiter *ratelimit.LoginLimiter,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Users:      users,
		Logins:     logins,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	User userinfo.Payload `json:"user"`
}

// HandleLogin handles POST /api/login.
//
// Wrong password and unknown email both answer 401 with the same message
// so the endpoint cannot be used to enumerate accounts. Disabled accounts
// answer 403.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := inputval.DecodeJSON(w, r, limits.MaxJSONBodySize, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if allowed, reason := h.Limiter.Check(r, req.Email); !allowed {
		h.AuditLog.LoginFailedRateLimit(ctx, r, req.Email, reason)
		apperr.Write(w, h.Log, apperr.RateLimited(reason))
		return
	}

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err == mongo.ErrNoDocuments {
		h.AuditLog.LoginFailedUserNotFound(ctx, r, req.Email)
		apperr.Write(w, h.Log, apperr.Unauthenticated("invalid email or password"))
		return
	}
	if err != nil {
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	if u.Status == models.UserDisabled {
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, u.Email)
		apperr.Write(w, h.Log, apperr.PermissionDenied("this account is disabled"))
		return
	}

	if u.AuthMethod != models.AuthPassword {
		apperr.Write(w, h.Log, apperr.FailedPrecondition("this account signs in with Google"))
		return
	}

	if u.PasswordHash == "" || !authutil.CheckPassword(req.Password, u.PasswordHash) {
		h.AuditLog.LoginFailedWrongPassword(ctx, r, u.ID, u.Email)
		apperr.Write(w, h.Log, apperr.Unauthenticated("invalid email or password"))
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", u.ID.Hex()))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	h.Limiter.ResetEmail(u.Email)
	if err := h.Users.TouchLastLogin(ctx, u.ID); err != nil {
		h.Log.Warn("failed to record last login time", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	if err := h.Logins.CreateFrom(ctx, r, u.ID, u.AuthMethod); err != nil {
		h.Log.Warn("failed to record login", zap.Error(err), zap.String("user_id", u.ID.Hex()))
	}
	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.AuthMethod, u.Email)

	inputval.WriteJSON(w, http.StatusOK, loginResponse{User: userinfo.NewPayload(u)})
}
