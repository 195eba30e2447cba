// Copyright 2025 The PharmaFinder Authors
// SPDX-License-Identifier: Apache-2.0

package geocoding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryCache is an in-process Cache for tests.
type memoryCache struct {
	entries map[string]*Result
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]*Result{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (*Result, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}

	r, ok := c.entries[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	return r, nil
}

func (c *memoryCache) Set(_ context.Context, key string, r *Result, ttl time.Duration) error {
	if c.setErr != nil {
		return c.setErr
	}

	c.entries[key] = r
	c.ttls[key] = ttl

	return nil
}

func TestCachingGeocoder(t *testing.T) {
	next := &countingGeocoder{result: townHall}
	cache := newMemoryCache()
	g := NewCachingGeocoder(next, cache, time.Hour)

	first, err := g.Geocode(context.Background(), "483 George St, Sydney")
	require.NoError(t, err)
	assert.Equal(t, townHall, first)

	// Same address modulo case and spacing
	second, err := g.Geocode(context.Background(), "  483 GEORGE st,   sydney ")
	require.NoError(t, err)
	assert.Equal(t, townHall, second)

	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Hour, cache.ttls["483 george st, sydney"])
}

func TestCachingGeocoderDoesNotCacheFailures(t *testing.T) {
	next := &countingGeocoder{err: notFound("nothing")}
	cache := newMemoryCache()
	g := NewCachingGeocoder(next, cache, 0)

	for range 2 {
		_, err := g.Geocode(context.Background(), "nowhere")
		assert.True(t, IsNotFoundError(err))
	}

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, cache.entries)
}

func TestCachingGeocoderDoesNotCacheEmptyAnswers(t *testing.T) {
	next := &countingGeocoder{}
	cache := newMemoryCache()
	g := NewCachingGeocoder(next, cache, time.Hour)

	for range 2 {
		result, err := g.Geocode(context.Background(), "nowhere")
		require.NoError(t, err)
		assert.Nil(t, result)
	}

	assert.Equal(t, 2, next.calls)
	assert.Empty(t, cache.entries)
}

func TestCachingGeocoderBypassesBrokenCache(t *testing.T) {
	next := &countingGeocoder{result: townHall}
	cache := newMemoryCache()
	cache.getErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")

	result, err := NewCachingGeocoder(next, cache, time.Minute).Geocode(context.Background(), "Sydney")
	require.NoError(t, err)
	assert.Equal(t, townHall, result)
	assert.Equal(t, 1, next.calls)
}

func TestRedisCacheUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	cache := NewRedisCache(client, "pharmafinder:geocode:")

	_, err := cache.Get(context.Background(), "sydney")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)

	next := &countingGeocoder{result: townHall}

	result, err := NewCachingGeocoder(next, cache, time.Minute).Geocode(context.Background(), "Sydney")
	require.NoError(t, err)
	assert.Equal(t, townHall, result)
}

func TestOpenRedis(t *testing.T) {
	assert.Nil(t, OpenRedis("", "", 0))

	client := OpenRedis("127.0.0.1:6379", "", 2)
	require.NotNil(t, client)
	defer client.Close()

	assert.Equal(t, 2, client.Options().DB)
}
