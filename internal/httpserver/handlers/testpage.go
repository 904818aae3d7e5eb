package handlers

import (
	_ "embed"
	"net/http"
)

//go:embed testpage.html
var testPage []byte

// TestPage serves the manual test UI for the /api/test endpoints.
func TestPage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(testPage)
	}
}
