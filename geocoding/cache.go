// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jcodagnone/pharmafinder/utils/textutils"
	"github.com/redis/go-redis/v9"
)

// ErrCacheMiss is returned by Cache.Get for unknown keys.
var ErrCacheMiss = errors.New("geocoding: cache miss")

// Cache stores geocoding results by normalized address.
type Cache interface {
	Get(ctx context.Context, key string) (*Result, error)
	Set(ctx context.Context, key string, result *Result, ttl time.Duration) error
}

// RedisCache is a Cache backed by Redis string keys holding JSON.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache returns a cache storing keys under prefix.
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

// OpenRedis opens a client, nil when addr is empty.
func OpenRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}

	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

func (c *RedisCache) Get(ctx context.Context, key string) (*Result, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	var result Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding cached result: %w", err)
	}

	return &result, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result *Result, ttl time.Duration) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}

	return nil
}

// CachingGeocoder remembers successful answers of another geocoder. Cache
// failures are logged and bypassed. Not found answers are never cached.
type CachingGeocoder struct {
	next  Geocoder
	cache Cache
	ttl   time.Duration
}

// NewCachingGeocoder wraps next. A zero ttl keeps entries forever.
func NewCachingGeocoder(next Geocoder, cache Cache, ttl time.Duration) *CachingGeocoder {
	return &CachingGeocoder{next: next, cache: cache, ttl: ttl}
}

func (g *CachingGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	key := textutils.QueryKey(address)

	cached, err := g.cache.Get(ctx, key)
	if err == nil {
		return cached, nil
	}

	if !errors.Is(err, ErrCacheMiss) {
		log.Printf("⚠️  Geocoding cache unavailable: %v", err)
	}

	result, err := g.next.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	if result == nil {
		return nil, nil
	}

	if err := g.cache.Set(ctx, key, result, g.ttl); err != nil {
		log.Printf("⚠️  Could not cache %q: %v", address, err)
	}

	return result, nil
}
