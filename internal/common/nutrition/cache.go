package nutrition

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"mealmatch-workers/internal/common/database"
	"mealmatch-workers/internal/common/logger"
	"mealmatch-workers/internal/common/metrics"
	"mealmatch-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "nutrition:"

// CachedLookup serves repeated queries from redis. Only non-empty successful
// results are stored; cache failures fall through to next.
type CachedLookup struct {
	next   Lookuper
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedLookup(next Lookuper, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedLookup {
	return &CachedLookup{next: next, redis: rdb, ttl: ttl, logger: log}
}

func CacheKey(query string) string {
	sum := sha256.Sum256([]byte(query))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedLookup) Lookup(ctx context.Context, query string) ([]models.NutritionItem, error) {
	key := CacheKey(query)

	var cached []models.NutritionItem
	found, err := database.GetJSON(ctx, c.redis, key, &cached)
	if err != nil {
		c.logger.Warn("nutrition cache read failed", map[string]interface{}{"key": key, "error": err})
	}
	if found {
		metrics.NutritionLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.NutritionLookups.WithLabelValues("miss").Inc()

	items, err := c.next.Lookup(ctx, query)
	if err != nil {
		return nil, err
	}

	if len(items) > 0 {
		if err := database.SetJSON(ctx, c.redis, key, items, c.ttl); err != nil {
			c.logger.Warn("nutrition cache write failed", map[string]interface{}{"key": key, "error": err})
		}
	}
	return items, nil
}
