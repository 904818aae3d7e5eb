package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
)

const maxTestBodyBytes = 4 << 10

type testRequest struct {
	Shortlink string `json:"shortlink" validate:"required"`
}

type checkResponse struct {
	Result  int               `json:"result"`
	Message string            `json:"message"`
	Data    *domain.ShortLink `json:"data,omitempty"`
}

type redirectResponse struct {
	RedirectURL string           `json:"redirectUrl"`
	Data        domain.ShortLink `json:"data"`
}

var requestValidator = validator.New()

// decodeTestRequest reads the {"shortlink": "..."} body. It writes the error
// response itself and returns false when the request cannot proceed.
func decodeTestRequest(w http.ResponseWriter, r *http.Request, d deps.Deps) (string, bool) {
	var req testRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTestBodyBytes))
	if err := dec.Decode(&req); err != nil {
		d.Logger.Debug("invalid test api body", logger.Error(err))
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}

	req.Shortlink = strings.TrimSpace(req.Shortlink)
	if err := requestValidator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Shortlink is required")
		return "", false
	}
	return req.Shortlink, true
}

// CheckShortLink reports whether a short link exists and is active.
func CheckShortLink(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := decodeTestRequest(w, r, d)
		if !ok {
			return
		}

		link, found := d.Resolver.Resolve(r.Context(), id)
		if !found {
			writeJSON(w, http.StatusOK, checkResponse{Result: 0, Message: "Shortlink not found"})
			return
		}

		resp := checkResponse{Result: 0, Message: "Shortlink is inactive", Data: &link}
		if domain.IsActive(link) {
			resp.Result = 1
			resp.Message = "Shortlink is active"
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// PreviewRedirect returns the URL /s/{id} would redirect to without redirecting.
func PreviewRedirect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := decodeTestRequest(w, r, d)
		if !ok {
			return
		}

		link, found := d.Resolver.Resolve(r.Context(), id)
		if !found {
			writeError(w, http.StatusNotFound, "Shortlink not found")
			return
		}
		if !domain.IsActive(link) {
			writeError(w, http.StatusGone, "Shortlink is inactive or expired")
			return
		}

		target, err := d.Redirects.Build(link)
		if err != nil {
			d.Logger.Error("failed to build redirect url",
				logger.String("short_link_id", id),
				logger.Error(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		writeJSON(w, http.StatusOK, redirectResponse{RedirectURL: target, Data: link})
	}
}
