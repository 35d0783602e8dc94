package priceoracle

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-petr/wholecoin/internal/domain"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wholecoin:price:"

// RedisCache keeps prices in Redis so every instance shares them.
type RedisCache struct {
	client redis.UniversalClient
}

// NewRedisCache returns a RedisCache over client.
func NewRedisCache(client redis.UniversalClient) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached price of coin.
func (c *RedisCache) Get(ctx context.Context, coin string) (domain.Price, bool, error) {
	raw, err := c.client.Get(ctx, keyPrefix+coin).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Price{}, false, nil
	}

	if err != nil {
		return domain.Price{}, false, err
	}

	var p domain.Price
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Price{}, false, err
	}

	return p, true, nil
}

// Set caches p for ttl.
func (c *RedisCache) Set(ctx context.Context, p domain.Price, ttl time.Duration) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, keyPrefix+p.Coin, raw, ttl).Err()
}

type memoryEntry struct {
	price     domain.Price
	expiresAt time.Time
}

// MemoryCache keeps prices in process. It is used when no Redis is configured.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Get returns the cached price of coin.
func (c *MemoryCache) Get(_ context.Context, coin string) (domain.Price, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[coin]
	if !ok || !c.now().Before(e.expiresAt) {
		return domain.Price{}, false, nil
	}

	return e.price, true, nil
}

// Set caches p for ttl.
func (c *MemoryCache) Set(_ context.Context, p domain.Price, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[p.Coin] = memoryEntry{price: p, expiresAt: c.now().Add(ttl)}

	return nil
}

// Reset drops every cached price.
func (c *MemoryCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]memoryEntry)
}
