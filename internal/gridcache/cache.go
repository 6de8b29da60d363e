// Package gridcache caches built schedule grids in Redis. Keys carry a generation number;
// any write to the API bumps the generation so older grids are never read again and
// simply expire.
package gridcache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/media-rota/backend/internal/projection"
)

const (
	keyPrefix     = "rota:grid:"
	generationKey = keyPrefix + "generation"
)

// Cache is a generation-versioned grid cache. A nil *Cache, a nil client or a zero TTL
// disables it; every method is then a no-op.
type Cache struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a grid cache.
func New(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

// Enabled reports whether reads and writes reach Redis.
func (c *Cache) Enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

// Get returns the cached grid for scheduleID at the current generation. On a miss it still
// returns the generation it read; a grid built afterwards is stored with Set under that
// generation, so a write that lands during the build leaves the entry unreachable.
// gen is -1 when the generation could not be read.
func (c *Cache) Get(ctx context.Context, scheduleID uuid.UUID) (view *projection.GridView, gen int64, ok bool) {
	if !c.Enabled() {
		return nil, -1, false
	}
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Warn("grid cache generation read failed", zap.Error(err))
		return nil, -1, false
	}
	key := Key(gen, scheduleID)
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("grid cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, gen, false
	}
	var v projection.GridView
	if err := json.Unmarshal(raw, &v); err != nil {
		c.logger.Warn("grid cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, gen, false
	}
	return &v, gen, true
}

// Set stores view for scheduleID under generation gen, as returned by Get before the build.
// A negative gen skips the write. Failures are logged only.
func (c *Cache) Set(ctx context.Context, gen int64, scheduleID uuid.UUID, view projection.GridView) {
	if !c.Enabled() || gen < 0 {
		return
	}
	raw, err := json.Marshal(view)
	if err != nil {
		c.logger.Warn("grid cache encode failed", zap.Error(err))
		return
	}
	key := Key(gen, scheduleID)
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("grid cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Invalidate moves every cached grid out of reach by bumping the generation.
func (c *Cache) Invalidate(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Incr(ctx, generationKey).Err()
}

func (c *Cache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return 0, err
	}
	return gen, nil
}

// Key is the Redis key of a schedule's grid at generation gen.
func Key(gen int64, scheduleID uuid.UUID) string {
	return keyPrefix + strconv.FormatInt(gen, 10) + ":" + scheduleID.String()
}
