// internal/app/features/admintokens/routes.go
package admintokens

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
		pr.Post("/", h.HandleMint)
	})

	return r
}
