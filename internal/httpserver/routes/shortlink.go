package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shortlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shortlink/internal/httpserver/handlers"
)

func init() { Register(registerShortLink) }

func registerShortLink(r chi.Router, d deps.Deps) {
	r.Get("/s/{shortLinkId}", handlers.Redirect(d))
}
