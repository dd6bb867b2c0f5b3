package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/fundscope/pkg/config"
)

// clientName shows up in CLIENT LIST so cache traffic can be traced to fundscope
const clientName = "fundscope"

// connectTimeout bounds the startup ping; a slow Redis must not stall the CLI
const connectTimeout = 3 * time.Second

// Client wraps the Redis client used by the NAV cache and the shared rate limiter.
// A disabled client is valid: every caller treats it as a pass-through.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb     *redis.Client
	enabled bool
}

// New connects when REDIS_ENABLED is set and verifies the connection
func New(cfg *config.Config) (*Client, error) {
	if !cfg.Redis.Enabled {
		return &Client{enabled: false}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         Addr(cfg.Redis),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		ClientName:   clientName,
		DialTimeout:  connectTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	c := &Client{rdb: rdb, enabled: true}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if _, err := c.Ping(ctx); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", Addr(cfg.Redis), err)
	}

	return c, nil
}

// Addr host:port of the configured server
func Addr(cfg config.RedisConfig) string {
	return fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
}

// Ping round-trips to Redis and returns the latency; zero when disabled
func (c *Client) Ping(ctx context.Context) (time.Duration, error) {
	if !c.enabled {
		return 0, nil
	}
	start := time.Now()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c.enabled
}

// Redis returns the underlying client for the cache and rate limiter scripts
func (c *Client) Redis() *redis.Client {
	return c.rdb
}
