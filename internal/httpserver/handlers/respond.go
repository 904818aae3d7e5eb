package handlers

import (
	"encoding/json"
	"net/http"
)

const (
	cacheControlNoStore  = "no-cache, no-store, must-revalidate"
	cacheControlRedirect = "public, max-age=300"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
