// internal/app/features/userinfo/routes.go
package userinfo

import (
	"github.com/go-chi/chi/v5"

	"github.com/dalemusser/skillhub/internal/app/system/auth"
)

// Routes returns the router for the signed-in user's own record,
// mounted under /api/me.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeMe)
	r.Patch("/", h.HandleUpdateMe)
	return r
}
