package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/httpserver/deps"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
)

// Redirect resolves /s/{shortLinkId} and sends the client to the destination.
func Redirect(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "shortLinkId")

		link, ok := d.Resolver.Resolve(r.Context(), id)
		if !ok {
			d.Logger.Info("short link not found", logger.String("short_link_id", id))
			plain(w, http.StatusNotFound, "Short link not found")
			return
		}

		if !domain.IsActive(link) {
			d.Logger.Info("short link not active",
				logger.String("short_link_id", id),
				logger.String("status", string(link.Status)))
			plain(w, http.StatusGone, "Short link is inactive or expired")
			return
		}

		target, err := d.Redirects.Build(link)
		if err != nil {
			d.Logger.Error("failed to build redirect url",
				logger.String("short_link_id", id),
				logger.Error(err))
			plain(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		h := w.Header()
		h.Set("Cache-Control", cacheControlRedirect)
		h.Set("X-Short-Link-Id", id)
		h.Set("X-Merchant-Id", link.MerchantID)
		h.Set("X-Campaign-Id", link.CampaignID)

		d.Logger.Debug("redirecting short link",
			logger.String("short_link_id", id),
			logger.String("location", target))
		http.Redirect(w, r, target, http.StatusFound)
	}
}

func plain(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Cache-Control", cacheControlNoStore)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
