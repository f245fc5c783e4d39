// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"github.com/roza-in/server/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (availability reads, hot lookups).
	CacheClient *redis.Client
	// AuthCacheClient is the dedicated client for authorization caching.
	AuthCacheClient *redis.Client
	// IdempotencyClient stores idempotency records for booking mutations.
	IdempotencyClient *redis.Client
)

func newRedisClient(db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
}

func mustPing(client *redis.Client, label string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", label, err)
	}
}

// InitCache initializes the generic Redis cache client.
func InitCache() {
	CacheClient = newRedisClient(config.AppConfig.RedisCacheDB)
	mustPing(CacheClient, "Cache")
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// InitAuthCache initializes the Redis client for authorization caching.
func InitAuthCache() {
	AuthCacheClient = newRedisClient(config.AppConfig.RedisAuthDB)
	mustPing(AuthCacheClient, "Auth Cache")
}

// GetAuthCacheClient returns the Redis client for authorization caching.
func GetAuthCacheClient() *redis.Client {
	if AuthCacheClient == nil {
		InitAuthCache()
	}
	return AuthCacheClient
}

// InitIdempotencyCache initializes the Redis client backing idempotency keys.
func InitIdempotencyCache() {
	IdempotencyClient = newRedisClient(config.AppConfig.RedisIdempotencyDB)
	mustPing(IdempotencyClient, "Idempotency")
}

// GetIdempotencyClient returns the Redis client backing idempotency keys.
func GetIdempotencyClient() *redis.Client {
	if IdempotencyClient == nil {
		InitIdempotencyCache()
	}
	return IdempotencyClient
}
