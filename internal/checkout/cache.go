package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/toko-checkout/internal/resilience"
)

const quoteKeyPrefix = "checkout:quote:"

// Cache stores computed quotes in Redis as JSON.
type Cache struct {
	client  *redis.Client
	ttl     time.Duration
	breaker *resilience.Breaker
}

// NewCache constructs a cache helper. A nil client or non-positive ttl yields a
// cache that never stores anything.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// WithBreaker guards Redis calls with b. While the breaker is open lookups
// fail fast with resilience.ErrOpenCircuit and writes are skipped.
func (c *Cache) WithBreaker(b *resilience.Breaker) *Cache {
	c.breaker = b
	return c
}

func (c *Cache) allow() bool {
	return c.breaker == nil || c.breaker.Allow()
}

func (c *Cache) report(err error) {
	if c.breaker != nil {
		c.breaker.Report(err == nil || errors.Is(err, redis.Nil))
	}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

// GetJSON unmarshals a cached JSON payload into dst. It reports whether the key existed.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	if !c.enabled() || key == "" {
		return false, nil
	}
	if !c.allow() {
		return false, resilience.ErrOpenCircuit
	}
	data, err := c.client.Get(ctx, quoteKeyPrefix+key).Bytes()
	c.report(err)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON serialises v as JSON and stores it with the configured TTL.
func (c *Cache) SetJSON(ctx context.Context, key string, v any) error {
	if !c.enabled() || key == "" {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if !c.allow() {
		return nil
	}
	err = c.client.Set(ctx, quoteKeyPrefix+key, data, c.ttl).Err()
	c.report(err)
	return err
}
