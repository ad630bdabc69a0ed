// internal/app/features/users/handler.go
package users

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	userstore "github.com/dalemusser/skillhub/internal/app/store/users"
	"github.com/dalemusser/skillhub/internal/app/system/apperr"
	"github.com/dalemusser/skillhub/internal/app/system/inputval"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// Handler serves the member directory: who is on the platform and what
// they can do. Collaboration owners use it to find candidates for open
// roles.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(users *userstore.Store, logger *zap.Logger) *Handler {
	return &Handler{Users: users, Log: logger}
}

type directoryEntry struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Skills   []string `json:"skills"`
	XP       int      `json:"xp"`
	Badges   []string `json:"badges"`
}

func newDirectoryEntry(u *models.User) directoryEntry {
	e := directoryEntry{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Skills:   u.Skills,
		XP:       u.XP,
		Badges:   u.Badges,
	}
	if e.Skills == nil {
		e.Skills = []string{}
	}
	if e.Badges == nil {
		e.Badges = []string{}
	}
	return e
}

// ServeDirectory handles GET /api/users. The skill parameter repeats for
// an AND match (?skill=writing&skill=editing); q is a name prefix, or an
// email prefix when it contains '@'.
func (h *Handler) ServeDirectory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var limit int64
	if raw := query.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			apperr.Write(w, h.Log, apperr.InvalidArgument("limit must be a positive integer"))
			return
		}
		limit = n
	}

	found, err := h.Users.SearchDirectory(r.Context(), query["skill"], query.Get("q"), limit)
	if err != nil {
		h.Log.Error("directory search failed", zap.Error(err))
		apperr.Write(w, h.Log, apperr.Internal(err))
		return
	}

	entries := make([]directoryEntry, 0, len(found))
	for i := range found {
		entries = append(entries, newDirectoryEntry(&found[i]))
	}

	inputval.WriteJSON(w, http.StatusOK, map[string]any{"users": entries})
}
