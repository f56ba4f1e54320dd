// Package cache provides a small JSON cache backed by Redis, with an
// in-process fallback for tests and for deployments without Redis.
//
// The gateway uses it for two things only: session storage and the PayPal
// client-id TTL cache. Screen entities (orders, products) are deliberately
// never cached — the upstream API is the sole source of truth.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/storefront/config"
)

var (
	RDB *redis.Client
	Ctx = context.Background()

	memMu  sync.RWMutex
	memory map[string]memEntry
)

type memEntry struct {
	data      []byte
	expiresAt time.Time
}

// Connect initialises the Redis client and verifies the connection with a
// ping. On failure the in-process fallback store takes over, so callers can
// treat the error as a warning.
func Connect() error {
	RDB = redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	if err := RDB.Ping(Ctx).Err(); err != nil {
		RDB = nil
		UseMemory()
		return fmt.Errorf("cache: redis ping: %w", err)
	}
	return nil
}

// UseMemory switches the cache to the in-process store. Tests call this to
// avoid a Redis dependency.
func UseMemory() {
	memMu.Lock()
	memory = map[string]memEntry{}
	memMu.Unlock()
}

// Get retrieves a cached value by key and unmarshals into dest.
// Returns true on a cache hit, false on miss or error.
func Get(key string, dest interface{}) bool {
	if RDB != nil {
		val, err := RDB.Get(Ctx, key).Result()
		if err != nil {
			return false
		}
		return json.Unmarshal([]byte(val), dest) == nil
	}

	memMu.RLock()
	entry, ok := memory[key]
	memMu.RUnlock()
	if !ok || (!entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt)) {
		return false
	}
	return json.Unmarshal(entry.data, dest) == nil
}

// Set stores value under key for the given TTL (0 means no expiry).
func Set(key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if RDB != nil {
		return RDB.Set(Ctx, key, data, ttl).Err()
	}

	entry := memEntry{data: data}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	memMu.Lock()
	if memory == nil {
		memory = map[string]memEntry{}
	}
	memory[key] = entry
	memMu.Unlock()
	return nil
}

// Del removes one or more keys.
func Del(keys ...string) error {
	if RDB != nil {
		return RDB.Del(Ctx, keys...).Err()
	}
	memMu.Lock()
	for _, k := range keys {
		delete(memory, k)
	}
	memMu.Unlock()
	return nil
}

// Forget is an alias for Del.
func Forget(key string) error {
	return Del(key)
}
