// internal/app/features/userinfo/handler.go
package userinfo

import (
	"context"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/app/system/limits"
	"github.com/dalemusser/skillhub/internal/app/system/timeouts"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// Handler serves and updates the signed-in user's own record.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

// NewHandler creates a new userinfo handler.
func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

// Payload is the canonical user JSON shape shared by /api/me and the login
// response.
type Payload struct {
	ID          string     `json:"id"`
	FullName    string     `json:"full_name"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	AuthMethod  string     `json:"auth_method"`
	Skills      []string   `json:"skills"`
	XP          int        `json:"xp"`
	Badges      []string   `json:"badges"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewPayload maps a user document to its API shape. Slices are never null
// in the output.
func NewPayload(u *models.User) Payload {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	badges := u.Badges
	if badges == nil {
		badges = []string{}
	}
	return Payload{
		ID:          u.ID.Hex(),
		FullName:    u.FullName,
		Email:       u.Email,
		Role:        u.Role,
		Status:      u.Status,
		AuthMethod:  u.AuthMethod,
		Skills:      skills,
		XP:          u.XP,
		Badges:      badges,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

// ServeMe handles GET /api/me.
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		apperr.Write(w, h.Log, apperr.Unauthenticated("sign-in required"))
		return
	}
	oid, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		apperr.Write(w, h.Log, apperr.Unauthenticated("invalid session"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, oid)
	if err != nil {
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}
	inputval.WriteJSON(w, http.StatusOK, NewPayload(u))
}

// updateMeRequest carries the self-service profile fields. Absent fields
// are left unchanged.
type updateMeRequest struct {
	FullName *string   `json:"fullName" validate:"omitempty,min=1,max=120"`
	Skills   *[]string `json:"skills" validate:"omitempty,max=30,dive,min=1,max=60"`
}

// HandleUpdateMe handles PATCH /api/me.
func (h *Handler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	su, ok := auth.CurrentUser(r)
	if !ok {
		apperr.Write(w, h.Log, apperr.Unauthenticated("sign-in required"))
		return
	}
	oid, err := primitive.ObjectIDFromHex(su.ID)
	if err != nil {
		apperr.Write(w, h.Log, apperr.Unauthenticated("invalid session"))
		return
	}

	var req updateMeRequest
	if err := inputval.DecodeJSON(w, r, limits.MaxJSONBodySize, &req); err != nil {
		apperr.Write(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, oid)
	if err != nil {
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	fullName := u.FullName
	if req.FullName != nil {
		fullName = *req.FullName
	}
	skills := u.Skills
	if req.Skills != nil {
		skills = *req.Skills
	}

	if err := h.Users.UpdateProfile(ctx, oid, fullName, skills); err != nil {
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	updated, err := h.Users.GetByID(ctx, oid)
	if err != nil {
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}
	h.Log.Info("profile updated", zap.String("user_id", su.ID))
	inputval.WriteJSON(w, http.StatusOK, NewPayload(updated))
}
