package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/shortlink/internal/domain"
	"github.com/MrSnakeDoc/shortlink/internal/logger"
)

// ErrDecode is returned (inside an absent Lookup) when a cached document cannot be decoded.
var ErrDecode = errors.New("cached short link is not a valid document")

// Store is the cache tier: short link documents kept in Redis as JSON.
//
// It never returns errors to its caller. Backend faults degrade to a miss on
// read and to a no-op on write, and are logged.
type Store struct {
	docs      documents
	logger    logger.Logger
	keyPrefix string
}

// NewStore creates a store over a RedisJSON-enabled client.
func NewStore(client *redis.Client, log logger.Logger, keyPrefix string) *Store {
	return newStore(jsonClient{client: client}, log, keyPrefix)
}

func newStore(docs documents, log logger.Logger, keyPrefix string) *Store {
	return &Store{
		docs:      docs,
		logger:    log,
		keyPrefix: keyPrefix,
	}
}

// Get retrieves the cached short link for id.
func (s *Store) Get(ctx context.Context, id string) domain.Lookup {
	key := ShortLinkKey(s.keyPrefix, id)

	raw, err := s.docs.GetJSON(ctx, key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Absent(nil) // Cache miss
		}
		err = fmt.Errorf("failed to get short link from cache: %w", err)
		s.logger.Error("redis cache read failed",
			logger.String("key", key),
			logger.Error(err))
		return domain.Absent(err)
	}
	if raw == "" || raw == "null" {
		return domain.Absent(nil)
	}

	link, err := decodeDocument(raw)
	if err != nil {
		s.logger.Error("redis cache returned malformed document",
			logger.String("key", key),
			logger.Error(err))
		return domain.Absent(err)
	}

	return domain.Found(link)
}

// Set writes link under id at the document root. Failures are logged and dropped.
func (s *Store) Set(ctx context.Context, id string, link domain.ShortLink) {
	key := ShortLinkKey(s.keyPrefix, id)

	if err := s.docs.SetJSON(ctx, key, RootPath, link); err != nil {
		s.logger.Error("redis cache write failed",
			logger.String("key", key),
			logger.Error(fmt.Errorf("failed to cache short link: %w", err)))
		return
	}

	s.logger.Debug("cached short link",
		logger.String("key", key),
		logger.String("slug", link.Slug))
}

// decodeDocument accepts both the legacy JSON.GET reply (the bare object) and
// the JSONPath reply shape (a one-element array).
func decodeDocument(raw string) (domain.ShortLink, error) {
	var link domain.ShortLink
	if err := json.Unmarshal([]byte(raw), &link); err == nil {
		return link, nil
	}

	var wrapped []domain.ShortLink
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil || len(wrapped) == 0 {
		return domain.ShortLink{}, fmt.Errorf("%w: %s", ErrDecode, truncate(raw, 64))
	}
	return wrapped[0], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
