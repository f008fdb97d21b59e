// Copyright (c) 2026 CodeNote. All rights reserved.
// Author: dev@codenote.ai

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statsFixture struct {
	Commits int    `json:"commits"`
	Login   string `json:"login"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return New(client), server
}

func TestCache_SetGetRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	stored := statsFixture{Commits: 42, Login: "octocat"}
	require.NoError(t, cache.Set(ctx, "stats:octocat", stored, time.Minute))

	var loaded statsFixture
	require.NoError(t, cache.Get(ctx, "stats:octocat", &loaded))
	assert.Equal(t, stored, loaded)
}

func TestCache_GetMiss(t *testing.T) {
	cache, _ := newTestCache(t)

	var loaded statsFixture
	err := cache.Get(context.Background(), "stats:nobody", &loaded)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestCache_Expiry(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stats:octocat", statsFixture{Commits: 1}, time.Minute))

	server.FastForward(2 * time.Minute)

	var loaded statsFixture
	assert.ErrorIs(t, cache.Get(ctx, "stats:octocat", &loaded), ErrMiss)
}

func TestCache_Delete(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stats:octocat", statsFixture{Commits: 1}, time.Minute))
	require.NoError(t, cache.Delete(ctx, "stats:octocat"))

	var loaded statsFixture
	assert.ErrorIs(t, cache.Get(ctx, "stats:octocat", &loaded), ErrMiss)

	// Deleting again is a no-op.
	assert.NoError(t, cache.Delete(ctx, "stats:octocat"))
}

func TestCache_Clear(t *testing.T) {
	cache, server := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "stats:a", statsFixture{Commits: 1}, time.Minute))
	require.NoError(t, cache.Set(ctx, "stats:b", statsFixture{Commits: 2}, time.Minute))

	// A key outside the cache namespace must survive a Clear.
	server.Set("queue:jobs", "untouched")

	require.NoError(t, cache.Clear(ctx))

	var loaded statsFixture
	assert.ErrorIs(t, cache.Get(ctx, "stats:a", &loaded), ErrMiss)
	assert.ErrorIs(t, cache.Get(ctx, "stats:b", &loaded), ErrMiss)
	assert.True(t, server.Exists("queue:jobs"))
}
