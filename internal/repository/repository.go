// Package repository is the Postgres persistence layer for profiles, swipes,
// matches, messages, recipes and favorites. Profiles are cached in redis.
package repository

import (
	"database/sql"
	"errors"
	"time"

	"mealmatch-workers/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrFavoriteExists = errors.New("recipe already in favorites")
)

const profileCachePrefix = "user:profile:"

type Repository struct {
	db       *sql.DB
	redis    redis.Cmdable
	cacheTTL time.Duration
	logger   logger.Logger
}

// New builds a Repository. rdb may be nil, which disables profile caching.
func New(db *sql.DB, rdb redis.Cmdable, cacheTTL time.Duration, log logger.Logger) *Repository {
	return &Repository{db: db, redis: rdb, cacheTTL: cacheTTL, logger: log}
}

func (r *Repository) DB() *sql.DB {
	return r.db
}

func profileCacheKey(userID string) string {
	return profileCachePrefix + userID
}

// orderedPair returns a and b sorted so a pair maps to one row regardless of
// who asked.
func orderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
