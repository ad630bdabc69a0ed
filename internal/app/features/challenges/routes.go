// internal/app/features/challenges/routes.go
package challenges

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/skillhub/internal/app/system/ratelimit"
)

// Routes returns the public challenge-board router.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeDetail)

	return r
}

// AdminRoutes returns the activation RPC router. Authorization is
// claim-based (bearer token or admin session) and checked in the
// handler, so only rate limiting runs as middleware here.
func AdminRoutes(h *Handler, limiter *ratelimit.Limiter, log *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(ratelimit.Middleware(limiter, log))
		pr.Post("/activate", h.HandleActivate)
	})

	return r
}
