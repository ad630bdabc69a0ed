// internal/app/features/collaborations/routes.go
package collaborations

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/skillhub/internal/app/system/auth"
	"github.com/dalemusser/skillhub/internal/domain/models"
)

// Routes returns the collaboration router. The board is public; writes
// need a session (ownership is checked in the handlers); the operation
// monitor is admin-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeDetail)
	r.Get("/{id}/roles", h.ServeRoles)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Post("/", h.HandleCreate)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Post("/{id}/roles", h.HandleAddRoles)
	})

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))
		pr.Post("/{id}/monitor", h.HandleStartMonitor)
		pr.Delete("/{id}/monitor", h.HandleStopMonitor)
		pr.Get("/{id}/operations", h.ServeOperations)
		pr.Get("/{id}/operations/stream", h.ServeOperationsStream)
	})

	return r
}
