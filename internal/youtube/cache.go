package youtube

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/hyperjump/manabu/internal/models"
)

// Searcher finds videos for a query.
type Searcher interface {
	SearchVideos(ctx context.Context, query string) ([]models.VideoResult, error)
}

// CachedSearcher memoizes search responses per normalized query. Errors are not cached.
type CachedSearcher struct {
	next   Searcher
	cache  *cache.Cache
	logger *zap.Logger
}

// NewCachedSearcher wraps next with an in-memory cache expiring entries after ttl.
func NewCachedSearcher(next Searcher, ttl time.Duration, logger *zap.Logger) *CachedSearcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedSearcher{
		next:   next,
		cache:  cache.New(ttl, 2*ttl),
		logger: logger,
	}
}

// SearchVideos returns the cached response for query or asks the wrapped searcher.
func (c *CachedSearcher) SearchVideos(ctx context.Context, query string) ([]models.VideoResult, error) {
	key := strings.ToLower(strings.Join(strings.Fields(query), " "))
	if v, ok := c.cache.Get(key); ok {
		c.logger.Debug("video search cache hit", zap.String("query", key))
		return v.([]models.VideoResult), nil
	}
	videos, err := c.next.SearchVideos(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, videos, cache.DefaultExpiration)
	return videos, nil
}

// Len returns the number of cached queries.
func (c *CachedSearcher) Len() int {
	return c.cache.ItemCount()
}
