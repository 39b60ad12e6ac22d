package userdir

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aura-webinar/webinar-service/internal/models"
)

const shortInfoKeyPrefix = "userdir:short:"

// Directory is the user service surface used by this service.
type Directory interface {
	BulkSearch(ctx context.Context, queries []string) ([]models.ResolvedUser, error)
	ShortInfoBulk(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ShortInfo, error)
}

// CachedClient keeps presenter short info in Redis. Identifier searches are never cached.
// Redis failures degrade to the wrapped directory.
type CachedClient struct {
	next   Directory
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedClient wraps next with a Redis short-info cache.
func NewCachedClient(next Directory, rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedClient {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedClient{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// BulkSearch is passed through to the user service.
func (c *CachedClient) BulkSearch(ctx context.Context, queries []string) ([]models.ResolvedUser, error) {
	return c.next.BulkSearch(ctx, queries)
}

// ShortInfoBulk serves cached entries and fetches the rest from the user service.
func (c *CachedClient) ShortInfoBulk(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ShortInfo, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.ShortInfo{}, nil
	}
	out := make(map[uuid.UUID]models.ShortInfo, len(ids))
	misses := ids

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = shortInfoKeyPrefix + id.String()
	}
	vals, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("short info cache read failed", zap.Error(err))
	} else {
		misses = misses[:0:0]
		for i, v := range vals {
			s, ok := v.(string)
			if !ok {
				misses = append(misses, ids[i])
				continue
			}
			var info models.ShortInfo
			if err := json.Unmarshal([]byte(s), &info); err != nil {
				misses = append(misses, ids[i])
				continue
			}
			out[ids[i]] = info
		}
	}
	if len(misses) == 0 {
		return out, nil
	}

	fetched, err := c.next.ShortInfoBulk(ctx, misses)
	if err != nil {
		return nil, err
	}
	pipe := c.rdb.Pipeline()
	queued := 0
	for id, info := range fetched {
		out[id] = info
		raw, err := json.Marshal(info)
		if err != nil {
			continue
		}
		pipe.Set(ctx, shortInfoKeyPrefix+id.String(), raw, c.ttl)
		queued++
	}
	if queued == 0 {
		return out, nil
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("short info cache write failed", zap.Error(err))
	}
	return out, nil
}
