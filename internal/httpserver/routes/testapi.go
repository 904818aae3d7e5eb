package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shortlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shortlink/internal/httpserver/handlers"
)

func init() { Register(registerTestAPI) }

// registerTestAPI mounts the manual test surface. mw.DisableTestAPI, applied
// globally, hides it when DISABLE_TEST_API=true.
func registerTestAPI(r chi.Router, d deps.Deps) {
	r.Post("/api/test/check", handlers.CheckShortLink(d))
	r.Post("/api/test/redirect", handlers.PreviewRedirect(d))
	r.Get("/test", handlers.TestPage())
}
