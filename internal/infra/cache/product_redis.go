package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecshop/internal/config"
	"ecshop/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// 接続して疎通確認まで行う
func NewRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func productKey(id string) string {
	return fmt.Sprintf("product:%s", id)
}

// 商品詳細をJSONで保持する
type ProductRedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewProductRedisCache(client redis.Cmdable, ttl time.Duration) *ProductRedisCache {
	return &ProductRedisCache{client: client, ttl: ttl}
}

func (c *ProductRedisCache) Get(ctx context.Context, id string) (model.Product, bool, error) {
	b, err := c.client.Get(ctx, productKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Product{}, false, nil
	}
	if err != nil {
		return model.Product{}, false, err
	}

	var p model.Product
	if err := json.Unmarshal(b, &p); err != nil {
		// 壊れた値は捨てる
		_ = c.client.Del(ctx, productKey(id)).Err()
		return model.Product{}, false, nil
	}
	return p, true, nil
}

func (c *ProductRedisCache) Set(ctx context.Context, p model.Product) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, productKey(p.ID), b, c.ttl).Err()
}

func (c *ProductRedisCache) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

// REDIS_ADDRが空のとき用
type NopProductCache struct{}

func (NopProductCache) Get(context.Context, string) (model.Product, bool, error) {
	return model.Product{}, false, nil
}
func (NopProductCache) Set(context.Context, model.Product) error    { return nil }
func (NopProductCache) Invalidate(context.Context, ...string) error { return nil }
