package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"ecshop/internal/domain/model"
	"ecshop/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ repository.ProductCache = (*ProductRedisCache)(nil)
	_ repository.ProductCache = NopProductCache{}
)

// TEST_REDIS_ADDRがなければskip
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	require.NoError(t, rdb.FlushDB(context.Background()).Err())
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestProductKey(t *testing.T) {
	assert.Equal(t, "product:abc", productKey("abc"))
}

func TestNopProductCache(t *testing.T) {
	ctx := context.Background()
	c := NopProductCache{}

	require.NoError(t, c.Set(ctx, model.Product{ID: "p1"}))
	_, ok, err := c.Get(ctx, "p1")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, "p1"))
}

func TestProductRedisCache_SetGetInvalidate(t *testing.T) {
	rdb := setupTestRedis(t)
	ctx := context.Background()
	c := NewProductRedisCache(rdb, time.Minute)

	p := model.Product{
		ID:    "8c7a1a7e-5d1b-4d0e-9a53-1b2f0c3d4e5f",
		Name:  "Desk Lamp",
		Price: decimal.RequireFromString("19.99"),
		Tax:   decimal.RequireFromString("10"),
		Stock: 4,
	}
	require.NoError(t, c.Set(ctx, p))

	got, ok, err := c.Get(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, p.Price.Equal(got.Price))
	assert.Equal(t, int64(4), got.Stock)

	require.NoError(t, c.Invalidate(ctx, p.ID))
	_, ok, err = c.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProductRedisCache_CorruptValueIsMiss(t *testing.T) {
	rdb := setupTestRedis(t)
	ctx := context.Background()
	c := NewProductRedisCache(rdb, time.Minute)

	require.NoError(t, rdb.Set(ctx, productKey("p1"), "{not json", time.Minute).Err())

	_, ok, err := c.Get(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(0), rdb.Exists(ctx, productKey("p1")).Val())
}
