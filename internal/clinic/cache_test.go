package clinic

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLoader struct {
	clinic *Clinic
	calls  int
}

func (l *countingLoader) Get(_ context.Context, id string) (*Clinic, error) {
	l.calls++
	if l.clinic == nil || l.clinic.ID != id {
		return nil, ErrNotFound
	}
	cp := *l.clinic
	return &cp, nil
}

func newTestCache(t *testing.T, source loader) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, source, time.Minute, nil), mr
}

func TestCacheReadThrough(t *testing.T) {
	loader := &countingLoader{clinic: &Clinic{ID: "c1", Name: "Clínica Sol", Settings: DefaultSettings()}}
	cache, mr := newTestCache(t, loader)
	ctx := context.Background()

	c, err := cache.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Clínica Sol", c.Name)

	settings, err := cache.Settings(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 20, settings.FlashOfferDiscountPct)
	assert.Equal(t, 1, loader.calls, "second read served from redis")
	assert.True(t, mr.Exists("clinic:record:c1"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls, "expired entry reloads")

	require.NoError(t, cache.Invalidate(ctx, "c1"))
	assert.False(t, mr.Exists("clinic:record:c1"))
}

func TestCacheMissingClinic(t *testing.T) {
	cache, mr := newTestCache(t, &countingLoader{})
	_, err := cache.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, mr.Exists("clinic:record:nope"))
}

func TestCacheDegradesWhenRedisDown(t *testing.T) {
	loader := &countingLoader{clinic: &Clinic{ID: "c1", Name: "Clínica Sol"}}
	cache, mr := newTestCache(t, loader)
	mr.Close()

	c, err := cache.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", c.ID)
}
