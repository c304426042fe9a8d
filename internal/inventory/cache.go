package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lowStockKeyPrefix = "inventory:lowstock:"

// LowStockCache keeps low-stock listings in Redis for the dashboard. The
// ledger invalidates it after every committed movement.
type LowStockCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewLowStockCache builds the cache. A zero ttl defaults to 30 seconds.
func NewLowStockCache(client *redis.Client, ttl time.Duration) *LowStockCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &LowStockCache{client: client, ttl: ttl}
}

// Get returns the cached listing for threshold, if any.
func (c *LowStockCache) Get(ctx context.Context, threshold int) ([]ProductStock, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(threshold)).Bytes()
	if err != nil {
		return nil, false
	}
	var items []ProductStock
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

// Set stores the listing for threshold.
func (c *LowStockCache) Set(ctx context.Context, threshold int, items []ProductStock) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, c.key(threshold), raw, c.ttl).Err()
}

// InvalidateLowStock drops every cached listing regardless of threshold.
func (c *LowStockCache) InvalidateLowStock(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	keys, err := c.client.Keys(ctx, lowStockKeyPrefix+"*").Result()
	if err != nil || len(keys) == 0 {
		return
	}
	_ = c.client.Del(ctx, keys...).Err()
}

func (c *LowStockCache) key(threshold int) string {
	return fmt.Sprintf("%s%d", lowStockKeyPrefix, threshold)
}
