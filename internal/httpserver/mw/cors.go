package mw

import (
	"net/http"

	"github.com/go-chi/cors"
)

// CORS lets browsers call the test API from other origins. Redirect responses
// are unaffected beyond the extra headers.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Short-Link-Id", "X-Merchant-Id", "X-Campaign-Id"},
		MaxAge:         300,
	})
}
