package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Aside returns the cached JSON value at key, or calls fetch and caches its
// result for ttl. A nil client or any Redis failure falls through to fetch.
func Aside[T any](ctx context.Context, rdb *redis.Client, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if rdb == nil {
		return fetch(ctx)
	}

	if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
		var v T
		if jsonErr := json.Unmarshal(raw, &v); jsonErr == nil {
			return v, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return fetch(ctx)
	}

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}
	if raw, err := json.Marshal(v); err == nil {
		rdb.Set(ctx, key, raw, ttl)
	}
	return v, nil
}

// Lookup reports whether key holds a cached value and decodes it into T.
func Lookup[T any](ctx context.Context, rdb *redis.Client, key string) (T, bool) {
	var v T
	if rdb == nil {
		return v, false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// Store writes v as JSON at key. Failures are ignored.
func Store(ctx context.Context, rdb *redis.Client, key string, v any, ttl time.Duration) {
	if rdb == nil {
		return
	}
	if raw, err := json.Marshal(v); err == nil {
		rdb.Set(ctx, key, raw, ttl)
	}
}
