package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/parcelmarket/shipping-marketplace/internal/core/domain"
)

// RateCache stores formatted rate lists in Redis under the composite keys
// built by the aggregator. Entries are immutable once written and expire on
// their TTL; a failing cache degrades to live quoting, never to wrong prices.
type RateCache struct {
	client *redis.Client
}

// NewRateCache creates a RateCache wrapping the given Redis client.
func NewRateCache(client *redis.Client) *RateCache {
	return &RateCache{client: client}
}

// Get returns the cached rates for key, or nil on a miss.
func (c *RateCache) Get(ctx context.Context, key string) ([]domain.FormattedRate, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("rate cache get: %w", err)
	}

	var rates []domain.FormattedRate
	if err := json.Unmarshal(raw, &rates); err != nil {
		// A corrupt entry is a miss; it will be overwritten on the next set.
		return nil, fmt.Errorf("rate cache decode: %w", err)
	}
	return rates, nil
}

// Set stores the rate list under key for ttl.
func (c *RateCache) Set(ctx context.Context, key string, rates []domain.FormattedRate, ttl time.Duration) error {
	raw, err := json.Marshal(rates)
	if err != nil {
		return fmt.Errorf("rate cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("rate cache set: %w", err)
	}
	return nil
}
