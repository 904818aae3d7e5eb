package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shortlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shortlink/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/shortlink/internal/httpserver/mw"
)

func init() { Register(registerProbes) }

// registerProbes mounts the operational endpoints behind the CIDR allow-list.
func registerProbes(r chi.Router, d deps.Deps) {
	r.Group(func(r chi.Router) {
		r.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
		r.Get("/healthz", handlers.Healthz(d))
		r.Get("/readyz", handlers.Readyz(d))
		r.Get("/infra", handlers.Infra(d))
	})
}
