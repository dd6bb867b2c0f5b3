package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/pkg/config"
)

func disabledClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestPing_Disabled(t *testing.T) {
	latency, err := disabledClient(t).Ping(context.Background())
	require.NoError(t, err)
	assert.Zero(t, latency)
}

func TestAddr(t *testing.T) {
	assert.Equal(t, "cache.local:6380", Addr(config.RedisConfig{Host: "cache.local", Port: "6380"}))
}

func TestNew_Unreachable(t *testing.T) {
	_, err := New(&config.Config{Redis: config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t), "test")

	allowed, remaining, err := limiter.Allow(context.Background(), EastmoneyRateLimit)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, EastmoneyRateLimit.Limit, remaining)
	assert.NoError(t, limiter.Wait(context.Background(), EastmoneyRateLimit))
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t), "test")
	ctx := context.Background()

	assert.False(t, cache.Enabled())
	assert.NoError(t, cache.Set(ctx, "key", []float64{1, 2}, TTLShort))

	var result []float64
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "fund:list", FundListKey(false))
	assert.Equal(t, "fund:list:raw", FundListKey(true))
	assert.Equal(t, "nav:000001:2024-01-15", NavHistoryKey("000001", "2024-01-15"))
	assert.Equal(t, "bench:000300:2024-01-15:2022-01-15", BenchmarkKey("000300", "2024-01-15", "2022-01-15"))
}
