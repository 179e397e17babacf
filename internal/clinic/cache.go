package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

type loader interface {
	Get(ctx context.Context, id string) (*Clinic, error)
}

// Cache is a read-through Redis cache in front of the clinics table. The
// schedulers read clinic settings on every run.
type Cache struct {
	redis  *redis.Client
	source loader
	ttl    time.Duration
	logger *logging.Logger
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(client *redis.Client, source loader, ttl time.Duration, logger *logging.Logger) *Cache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Cache{redis: client, source: source, ttl: ttl, logger: logger}
}

func (c *Cache) key(id string) string {
	return fmt.Sprintf("clinic:record:%s", id)
}

// Get returns the clinic, loading and caching it on a miss. Redis failures
// degrade to a direct database read.
func (c *Cache) Get(ctx context.Context, id string) (*Clinic, error) {
	data, err := c.redis.Get(ctx, c.key(id)).Bytes()
	switch {
	case err == nil:
		var cl Clinic
		if err := json.Unmarshal(data, &cl); err == nil {
			return &cl, nil
		}
		c.logger.Warn("clinic cache entry unreadable", "clinic_id", id)
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("clinic cache get failed", "clinic_id", id, "error", err)
	}

	cl, err := c.source.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(cl); err == nil {
		if err := c.redis.Set(ctx, c.key(id), raw, c.ttl).Err(); err != nil {
			c.logger.Warn("clinic cache set failed", "clinic_id", id, "error", err)
		}
	}
	return cl, nil
}

// Settings returns only the growth settings.
func (c *Cache) Settings(ctx context.Context, id string) (Settings, error) {
	cl, err := c.Get(ctx, id)
	if err != nil {
		return Settings{}, err
	}
	return cl.Settings, nil
}

// Invalidate drops the cached copy after a write.
func (c *Cache) Invalidate(ctx context.Context, id string) error {
	if err := c.redis.Del(ctx, c.key(id)).Err(); err != nil {
		return fmt.Errorf("clinic: invalidate cache: %w", err)
	}
	return nil
}
