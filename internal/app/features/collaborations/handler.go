// internal/app/features/collaborations/handler.go

// Package collaborations serves the collaboration aggregate over JSON:
// the public board, the owner editing surface, and the admin operation
// monitor with its live WebSocket feed.
package collaborations

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	collabstore "github.com/dalemusser/skillhub/internal/app/store/collabs"
	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/auditlog"
	"github.com/dalemusser/skillhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/skillhub/internal/app/system/opmonitor"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// Handler carries the stores the collaboration endpoints touch. Ownership
// checks live in the handlers rather than middleware because the owner is
// only known after the document is loaded.
type Handler struct {
	Collabs  *collabstore.Store
	Users    *userstore.Store
	DB       *mongo.Database
	Monitor  *opmonitor.Monitor
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(
	collabs *collabstore.Store,
	users *userstore.Store,
	db *mongo.Database,
	monitor *opmonitor.Monitor,
	audit *auditlog.Logger,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Collabs:  collabs,
		Users:    users,
		DB:       db,
		Monitor:  monitor,
		AuditLog: audit,
		Log:      logger,
	}
}

// roleBody is the editable part of a role in create and update payloads.
type roleBody struct {
	Title           string   `json:"title" validate:"required"`
	Description     string   `json:"description" validate:"required"`
	RequiredSkills  []string `json:"requiredSkills" validate:"min=1"`
	PreferredSkills []string `json:"preferredSkills"`
}

// input converts the payload shape to the store shape. The description is
// user-authored rich text, so it passes through the sanitizer here.
func (b roleBody) input() collabstore.RoleInput {
	return collabstore.RoleInput{
		Title:           b.Title,
		Description:     htmlsanitize.Sanitize(b.Description),
		RequiredSkills:  b.RequiredSkills,
		PreferredSkills: b.PreferredSkills,
	}
}

// collabID parses the {id} route parameter.
func collabID(r *http.Request) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		return primitive.NilObjectID, apperr.InvalidArgument("invalid collaboration id")
	}
	return id, nil
}

func hexIDs(roles []models.Role) []string {
	out := make([]string, len(roles))
	for i := range roles {
		out[i] = roles[i].ID.Hex()
	}
	return out
}
