// internal/app/features/logout/routes.go
package logout

import (
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	// No sign-in requirement: logging out an already-expired session
	// should succeed rather than 401.
	r.Post("/", h.HandleLogout)

	return r
}
