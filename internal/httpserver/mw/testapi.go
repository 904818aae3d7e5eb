package mw

import (
	"net/http"
	"strings"
)

// DisableTestAPI hides the manual test surface when disabled is true:
// /api/test/* answers a JSON 404 and /test, /test/* a plain 404.
func DisableTestAPI(disabled bool) func(http.Handler) http.Handler {
	if !disabled {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			switch {
			case strings.HasPrefix(p, "/api/test/"):
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":"Test API disabled"}` + "\n"))
			case p == "/test" || strings.HasPrefix(p, "/test/"):
				w.Header().Set("Content-Type", "text/plain; charset=utf-8")
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte("Not Found"))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
