package resolver

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
)

// CacheStore is the fast tier. Implementations never fail: faults come back as absent lookups.
type CacheStore interface {
	Get(ctx context.Context, id string) domain.Lookup
	Set(ctx context.Context, id string, link domain.ShortLink)
}

// FallbackSource is the authoritative tier consulted on a cache miss.
type FallbackSource interface {
	Fetch(ctx context.Context, id string) domain.Lookup
}

// Options tune the resolver. The zero value resolves every call independently
// and writes back synchronously.
type Options struct {
	// Coalesce makes concurrent misses for the same id share one fallback fetch.
	Coalesce bool
	// AsyncBackfill performs the cache write-back on a goroutine detached from
	// the request context.
	AsyncBackfill bool
}

// Resolver implements cache-aside lookup with backfill:
// cache -> fallback -> write-back.
type Resolver struct {
	cache    CacheStore
	fallback FallbackSource
	logger   logger.Logger
	opts     Options

	group     singleflight.Group
	backfills sync.WaitGroup
}

// New creates a resolver over the given tiers.
func New(cache CacheStore, fallback FallbackSource, log logger.Logger, opts Options) *Resolver {
	return &Resolver{
		cache:    cache,
		fallback: fallback,
		logger:   log,
		opts:     opts,
	}
}

// Resolve returns the short link for id and whether it was found.
//
// A cache hit is returned without consulting the fallback. On a miss (cache
// faults included) the fallback is queried once; a hit there is written back to
// the cache before being returned. The write-back never changes the result.
func (r *Resolver) Resolve(ctx context.Context, id string) (domain.ShortLink, bool) {
	if hit := r.cache.Get(ctx, id); hit.Found {
		r.logger.Debug("cache hit", logger.String("key", id))
		return hit.ShortLink, true
	} else if hit.Faulted() {
		r.logger.Debug("cache unavailable, using fallback",
			logger.String("key", id),
			logger.Error(hit.Err))
	}

	var res domain.Lookup
	if r.opts.Coalesce {
		res = r.fetchShared(ctx, id)
	} else {
		res = r.fetchAndBackfill(ctx, id)
	}

	if !res.Found {
		r.logger.Debug("short link not found in any tier", logger.String("key", id))
		return domain.ShortLink{}, false
	}
	return res.ShortLink, true
}

// Wait blocks until every pending asynchronous write-back has finished.
func (r *Resolver) Wait() {
	r.backfills.Wait()
}

func (r *Resolver) fetchAndBackfill(ctx context.Context, id string) domain.Lookup {
	res := r.fallback.Fetch(ctx, id)
	if !res.Found {
		return res
	}

	r.backfill(ctx, id, res.ShortLink)
	return res
}

// fetchShared runs fetchAndBackfill once per id for all concurrent callers.
// The shared call is detached from any single caller's cancellation so one
// client going away does not fail the others.
func (r *Resolver) fetchShared(ctx context.Context, id string) domain.Lookup {
	v, _, shared := r.group.Do(id, func() (interface{}, error) {
		return r.fetchAndBackfill(context.WithoutCancel(ctx), id), nil
	})
	if shared {
		r.logger.Debug("coalesced fallback lookup", logger.String("key", id))
	}
	return v.(domain.Lookup)
}

func (r *Resolver) backfill(ctx context.Context, id string, link domain.ShortLink) {
	if !r.opts.AsyncBackfill {
		r.cache.Set(ctx, id, link)
		return
	}

	r.backfills.Add(1)
	go func(ctx context.Context) {
		defer r.backfills.Done()
		r.cache.Set(ctx, id, link)
	}(context.WithoutCancel(ctx))
}
