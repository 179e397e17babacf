package behavior

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionGuard keeps classified sessions in Redis with a TTL.
type RedisSessionGuard struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewRedisSessionGuard creates a guard whose entries expire after ttl.
func NewRedisSessionGuard(client *redis.Client, ttl time.Duration) *RedisSessionGuard {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisSessionGuard{redis: client, ttl: ttl}
}

func (g *RedisSessionGuard) key(clinicID, sessionID string) string {
	return fmt.Sprintf("behavior:session:%s:%s", clinicID, sessionID)
}

// Claim stores p if the session is new, otherwise returns the stored profile.
func (g *RedisSessionGuard) Claim(ctx context.Context, clinicID, sessionID string, p Profile) (Profile, bool, error) {
	key := g.key(clinicID, sessionID)
	ok, err := g.redis.SetNX(ctx, key, string(p), g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("behavior: setnx: %w", err)
	}
	if ok {
		return p, true, nil
	}
	val, err := g.redis.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; treat as a fresh claim.
		if err := g.redis.Set(ctx, key, string(p), g.ttl).Err(); err != nil {
			return "", false, fmt.Errorf("behavior: set: %w", err)
		}
		return p, true, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("behavior: get: %w", err)
	}
	stored := Profile(val)
	if !stored.Valid() {
		stored = ProfileHesitant
	}
	return stored, false, nil
}

// Release forgets a session so it can be classified again.
func (g *RedisSessionGuard) Release(ctx context.Context, clinicID, sessionID string) error {
	if err := g.redis.Del(ctx, g.key(clinicID, sessionID)).Err(); err != nil {
		return fmt.Errorf("behavior: del: %w", err)
	}
	return nil
}
