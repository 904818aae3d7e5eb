package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
)

// LinkResolver answers "which short link is this identifier?" across cache and fallback.
type LinkResolver interface {
	Resolve(ctx context.Context, id string) (domain.ShortLink, bool)
}

// Pinger is the subset of *redis.Client used by the probes.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type Deps struct {
	Logger          logger.Logger
	StartTime       time.Time
	Version         string
	Commit          string
	BuildDate       string
	GoVersion       string
	AllowedCIDRS    []string                // IPs allowed to access healthz/readyz/infra
	TrustProxy      bool                    // true if running behind a trusted reverse proxy
	Resolver        LinkResolver            // cache + fallback lookup
	Redirects       *domain.RedirectBuilder // builds the destination URL
	RedisClient     Pinger                  // nil when not connected
	FallbackBaseURL string                  // empty when the fallback tier is disabled
	StrictRecords   bool
	Coalesce        bool
	AsyncBackfill   bool
}
