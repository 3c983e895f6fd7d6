package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/solo_shop/internal/models"
)

func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client), mr
}

func TestSetGetDelete(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	p := &models.Product{ID: 1, Name: "Lamp", Price: 9.99, Stock: 3, IsAvailable: true}
	require.NoError(t, c.Set(ctx, p))
	assert.True(t, mr.Exists("product:1"))

	ttl := mr.TTL("product:1")
	assert.GreaterOrEqual(t, ttl, 5*time.Minute)

	got, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)
	assert.Equal(t, 3, got.Stock)

	require.NoError(t, c.Delete(ctx, 1))
	_, err = c.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestGet_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)
	got, err := c.Get(context.Background(), 42)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGet_InvalidJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("product:1", "{not json"))

	_, err := c.Get(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestGet_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t)
	mr.Close()

	_, err := c.Get(context.Background(), 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestNoop(t *testing.T) {
	var c ProductCache = Noop{}
	_, err := c.Get(context.Background(), 1)
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.NoError(t, c.Set(context.Background(), &models.Product{}))
}
