package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisClientName tags connections in CLIENT LIST so the storefront's
// traffic is distinguishable from other tenants of a shared Redis.
const redisClientName = "edcommerce-store"

// RedisConfig holds connection settings for the Redis instance backing the
// session cart ledger and the catalog mirror.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int

	// PoolSize bounds connections for this single service. Zero applies
	// the storefront default.
	PoolSize     int
	MinIdleConns int
}

// DefaultRedisConfig returns the storefront defaults: a local instance with
// a small pool, enough for cart traffic plus mirror refreshes.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:         "localhost",
		Port:         6379,
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// Addr returns the Redis address string.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// NewRedisClient creates a Redis client and verifies the connection. Cart
// reads sit on the request path, so dial and read timeouts stay short; a
// slow Redis should fail fast rather than stall checkout.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = DefaultRedisConfig().PoolSize
	}
	minIdle := cfg.MinIdleConns
	if minIdle <= 0 {
		minIdle = DefaultRedisConfig().MinIdleConns
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   redisClientName,
		PoolSize:     poolSize,
		MinIdleConns: minIdle,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
