package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/shortlink/internal/httpserver/deps"
)

const pingTimeout = 2 * time.Second

var errRedisNotInitialized = errors.New("client not initialized")

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type resolverStatus struct {
	StrictRecords bool `json:"strict_records"`
	Coalesce      bool `json:"coalesce"`
	AsyncBackfill bool `json:"async_backfill"`
}

type infraResponse struct {
	ResolutionMode string                     `json:"resolution_mode"`
	Components     map[string]componentStatus `json:"components"`
	Resolver       resolverStatus             `json:"resolver"`
	RedirectBase   string                     `json:"redirect_base"`
}

// Infra describes the state of both lookup tiers.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		components := map[string]componentStatus{
			"redis":    redisStatus(r.Context(), d),
			"fallback": fallbackStatus(d),
		}

		resp := infraResponse{
			ResolutionMode: resolutionMode(components),
			Components:     components,
			Resolver: resolverStatus{
				StrictRecords: d.StrictRecords,
				Coalesce:      d.Coalesce,
				AsyncBackfill: d.AsyncBackfill,
			},
		}
		if d.Redirects != nil {
			resp.RedirectBase = d.Redirects.BaseURL()
		}

		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, resp)
	}
}

// resolutionMode summarises which tiers can currently answer lookups.
func resolutionMode(components map[string]componentStatus) string {
	cache, fallback := components["redis"].OK, components["fallback"].OK
	switch {
	case cache && fallback:
		return "cache+fallback"
	case cache:
		return "cache-only"
	case fallback:
		return "degraded" // every lookup goes to the fallback API
	default:
		return "critical"
	}
}

func redisStatus(ctx context.Context, d deps.Deps) componentStatus {
	if err := pingRedis(ctx, d); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "every-lookup-hits-fallback",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true, Mode: "optimal"}
}

func fallbackStatus(d deps.Deps) componentStatus {
	if d.FallbackBaseURL == "" {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "cache-misses-are-not-found",
		}
	}
	return componentStatus{OK: true, Mode: "enabled"}
}

func pingRedis(ctx context.Context, d deps.Deps) error {
	if d.RedisClient == nil {
		return errRedisNotInitialized
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return d.RedisClient.Ping(ctx).Err()
}
