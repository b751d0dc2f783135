// Package ratelimit provides the storage backing the request limiter.
package ratelimit

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	memoryStorage "github.com/gofiber/storage/memory/v2"
	redisStorage "github.com/gofiber/storage/redis/v2"
	"github.com/redis/go-redis/v9"

	"resume2pdf/internal/infra/logging"
)

const pingTimeout = time.Second

// RedisConfig selects a Redis server. An empty Addr means in-memory storage.
type RedisConfig struct {
	Addr string
	DB   int
}

// NewStore returns Redis-backed storage when the server answers a ping and
// in-memory storage otherwise.
func NewStore(cfg RedisConfig) fiber.Storage {
	if cfg.Addr == "" {
		return memoryStorage.New()
	}
	if err := ping(cfg); err != nil {
		logging.Warn("Redis unavailable for rate limiting, falling back to memory", "addr", cfg.Addr, "error", err)
		return memoryStorage.New()
	}

	var store fiber.Storage
	func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("Redis limiter store init panicked, falling back to memory", "panic", r)
				store = memoryStorage.New()
			}
		}()
		store = redisStorage.New(redisStorage.Config{
			Addrs:    []string{cfg.Addr},
			Database: cfg.DB,
		})
		logging.Info("Using Redis for rate limiting", "addr", cfg.Addr, "db", cfg.DB)
	}()
	return store
}

// ping checks reachability up front; the storage constructor panics instead of
// returning an error.
func ping(cfg RedisConfig) error {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, DB: cfg.DB})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return client.Ping(ctx).Err()
}
