package provider

import (
	"context"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/pkg/logger"
	"github.com/wonny/fundscope/pkg/redis"
)

// Cached serves provider reads from redis, keyed by calendar day.
// A disabled redis client makes it a pass-through. Cache errors never fail a call.
type Cached struct {
	inner  contracts.MarketDataProvider
	cache  *redis.Cache
	logger *logger.Logger
	now    func() time.Time
}

// NewCached creates the cache decorator
func NewCached(inner contracts.MarketDataProvider, cache *redis.Cache, log *logger.Logger) *Cached {
	return &Cached{
		inner:  inner,
		cache:  cache,
		logger: log.WithField("module", "provider_cache"),
		now:    time.Now,
	}
}

func (c *Cached) today() string {
	return c.now().Format("2006-01-02")
}

// GetNavSeries caches NAV history per code per day
func (c *Cached) GetNavSeries(ctx context.Context, code string) ([]contracts.NavPoint, error) {
	key := redis.NavHistoryKey(code, c.today())

	var cached []contracts.NavPoint
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	nav, err := c.inner.GetNavSeries(ctx, code)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, nav, redis.TTLDaily)
	return nav, nil
}

// GetBenchmarkSeries caches benchmark returns per symbol, day and start date
func (c *Cached) GetBenchmarkSeries(ctx context.Context, symbol string, start time.Time) ([]contracts.BenchmarkPoint, error) {
	key := redis.BenchmarkKey(symbol, c.today(), start.Format("2006-01-02"))

	var cached []contracts.BenchmarkPoint
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	series, err := c.inner.GetBenchmarkSeries(ctx, symbol, start)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, series, redis.TTLMedium)
	return series, nil
}

// ListCandidateFunds caches the filtered (or raw) candidate list
func (c *Cached) ListCandidateFunds(ctx context.Context, filter contracts.FilterConfig) ([]contracts.Fund, error) {
	key := redis.FundListKey(filter.SkipFilter)

	var cached []contracts.Fund
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	funds, err := c.inner.ListCandidateFunds(ctx, filter)
	if err != nil {
		return nil, err
	}
	c.store(ctx, key, funds, redis.TTLShort)
	return funds, nil
}

func (c *Cached) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := c.cache.Get(ctx, key, dest)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	return found
}

func (c *Cached) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := c.cache.Set(ctx, key, value, ttl); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}
