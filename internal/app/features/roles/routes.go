// internal/app/features/roles/routes.go
package roles

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/skillhub/internal/app/system/auth"
)

// Routes returns the role router. Everything here writes, so the whole
// router sits behind a session; finer checks (owner, assignee) happen in
// the handlers.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Patch("/{id}", h.HandleModify)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/fill", h.HandleFill)
		pr.Post("/{id}/request-completion", h.HandleRequestCompletion)
		pr.Delete("/{id}/request-completion", h.HandleCancelCompletion)
		pr.Post("/{id}/complete", h.HandleComplete)
		pr.Post("/{id}/abandon", h.HandleAbandon)
	})

	return r
}
