// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

/*
Package cache provides a namespaced, TTL-aware cache on top of Redis.

It is used for expensive third-party aggregations (GitHub contribution stats)
whose freshness requirements are measured in hours, not milliseconds.

Core Responsibilities:

  - Volatility: Every entry carries a TTL; Redis handles expiry natively.
  - Encoding: Values are JSON round-tripped so callers store plain structs.
  - Safety: A cache miss is a normal outcome, reported via ErrMiss.
*/
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/codenoteai/codenote/internal/platform/constants"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// DefaultTTL is the entry lifetime used when callers pass 0.
const DefaultTTL = 1 * time.Hour

// Cache is a thin JSON wrapper over a Redis client.
type Cache struct {
	client *redis.Client
}

// New constructs a Cache bound to the shared Redis client.
func New(client *redis.Client) *Cache {
	return &Cache{client: client}
}

/*
Set stores a JSON-encoded value under the namespaced key with a TTL.

Parameters:
  - context: context.Context
  - key: string
  - value: any (JSON-encodable)
  - ttl: time.Duration (0 means DefaultTTL)

Returns:
  - error: Encoding or storage failures
*/
func (cache *Cache) Set(context context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache_set_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, cache.key(key), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("cache_set_failed: %w", err)
	}

	return nil
}

/*
Get retrieves and decodes a cached value into target.

Description: Returns ErrMiss when the key is absent or expired, so callers
can distinguish "not cached" from real connectivity failures.

Parameters:
  - context: context.Context
  - key: string
  - target: pointer to the destination value

Returns:
  - error: ErrMiss, decode failures, or connectivity errors
*/
func (cache *Cache) Get(context context.Context, key string, target any) error {
	raw, err := cache.client.Get(context, cache.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrMiss
		}
		return fmt.Errorf("cache_get_failed: %w", err)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("cache_get_decode_failed: %w", err)
	}

	return nil
}

/*
Delete removes a single cached entry. Deleting an absent key is not an error.
*/
func (cache *Cache) Delete(context context.Context, key string) error {
	if err := cache.client.Del(context, cache.key(key)).Err(); err != nil {
		return fmt.Errorf("cache_delete_failed: %w", err)
	}
	return nil
}

/*
Clear removes every entry in the cache namespace.

Description: Iterates with SCAN rather than KEYS to avoid blocking Redis on
large namespaces.
*/
func (cache *Cache) Clear(context context.Context) error {
	iter := cache.client.Scan(context, 0, constants.RedisPrefixCache+"*", 0).Iterator()

	for iter.Next(context) {
		if err := cache.client.Del(context, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache_clear_failed: %w", err)
		}
	}

	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache_clear_scan_failed: %w", err)
	}

	return nil
}

// key applies the cache namespace prefix.
func (cache *Cache) key(key string) string {
	return constants.RedisPrefixCache + key
}
