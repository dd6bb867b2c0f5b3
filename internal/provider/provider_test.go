package provider

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/pkg/config"
	"github.com/wonny/fundscope/pkg/logger"
	"github.com/wonny/fundscope/pkg/redis"
)

// flaky fails the first n GetNavSeries calls
type flaky struct {
	*Static
	mu       sync.Mutex
	failures int
	err      error
	starts   []time.Time
}

func (f *flaky) GetNavSeries(ctx context.Context, code string) ([]contracts.NavPoint, error) {
	f.mu.Lock()
	f.starts = append(f.starts, time.Now())
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, f.err
	}
	f.mu.Unlock()
	return f.Static.GetNavSeries(ctx, code)
}

func navFixture() []contracts.NavPoint {
	return []contracts.NavPoint{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), NAV: 1.0},
		{Date: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC), NAV: 1.01},
	}
}

func newFlaky(failures int, err error) *flaky {
	static := NewStatic().AddFund(contracts.Fund{Code: "000001"}, navFixture())
	return &flaky{Static: static, failures: failures, err: err}
}

func recordSleeps(r *Resilient) *[]time.Duration {
	var delays []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return &delays
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{InitialDelay: 3 * time.Second, BackoffFactor: 2, MaxDelay: 20 * time.Second}
	assert.Equal(t, 3*time.Second, p.delay(1))
	assert.Equal(t, 6*time.Second, p.delay(2))
	assert.Equal(t, 12*time.Second, p.delay(3))
	assert.Equal(t, 20*time.Second, p.delay(4))
}

func TestResilient_RetriesThenSucceeds(t *testing.T) {
	inner := newFlaky(2, errors.New("connection reset"))
	r := NewResilient(inner, RetryPolicy{MaxAttempts: 5, InitialDelay: time.Second, BackoffFactor: 2}, 0, logger.Nop())
	delays := recordSleeps(r)

	nav, err := r.GetNavSeries(context.Background(), "000001")
	require.NoError(t, err)
	assert.Len(t, nav, 2)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestResilient_ExhaustedRetries(t *testing.T) {
	cause := errors.New("503 service unavailable")
	inner := newFlaky(10, cause)
	r := NewResilient(inner, RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, BackoffFactor: 2}, 0, logger.Nop())
	delays := recordSleeps(r)

	_, err := r.GetNavSeries(context.Background(), "000001")
	assert.ErrorIs(t, err, contracts.ErrFetchFailed)
	assert.ErrorIs(t, err, cause)
	assert.Len(t, inner.starts, 3)
	assert.Len(t, *delays, 2)
}

func TestResilient_NotFoundIsNotRetried(t *testing.T) {
	inner := newFlaky(0, nil)
	r := NewResilient(inner, DefaultRetryPolicy(), 0, logger.Nop())
	recordSleeps(r)

	_, err := r.GetNavSeries(context.Background(), "999999")
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	assert.NotErrorIs(t, err, contracts.ErrFetchFailed)
	assert.Equal(t, 1, inner.Calls("999999"))
}

func TestResilient_CancelledContext(t *testing.T) {
	inner := newFlaky(10, errors.New("timeout"))
	r := NewResilient(inner, RetryPolicy{MaxAttempts: 5, InitialDelay: time.Hour, BackoffFactor: 2}, 0, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.GetNavSeries(ctx, "000001")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResilient_RateGateSpacesCallStarts(t *testing.T) {
	inner := newFlaky(0, nil)
	interval := 40 * time.Millisecond
	r := NewResilient(inner, DefaultRetryPolicy(), interval, logger.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.GetNavSeries(context.Background(), "000001")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Len(t, inner.starts, 4)
	first, last := inner.starts[0], inner.starts[0]
	for _, s := range inner.starts {
		if s.Before(first) {
			first = s
		}
		if s.After(last) {
			last = s
		}
	}
	// 4 starts need at least 3 intervals; allow scheduler slack
	assert.GreaterOrEqual(t, last.Sub(first), 3*interval-10*time.Millisecond)
}

func TestStatic(t *testing.T) {
	s := NewStatic().
		AddFund(contracts.Fund{Code: "000002"}, navFixture()).
		AddFund(contracts.Fund{Code: "000001"}, navFixture()).
		SetBenchmark("000300", []contracts.BenchmarkPoint{
			{Date: time.Date(2023, 12, 29, 0, 0, 0, 0, time.UTC), Return: 0.01},
			{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Return: 0.02},
		}).
		FailNav("000002", contracts.ErrFetchFailed)

	ctx := context.Background()

	funds, err := s.ListCandidateFunds(ctx, contracts.FilterConfig{})
	require.NoError(t, err)
	require.Len(t, funds, 2)
	assert.Equal(t, "000001", funds[0].Code)

	bench, err := s.GetBenchmarkSeries(ctx, "000300", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, bench, 1)

	_, err = s.GetBenchmarkSeries(ctx, "000905", time.Time{})
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, err = s.GetNavSeries(ctx, "000002")
	assert.ErrorIs(t, err, contracts.ErrFetchFailed)
}

func TestDemoUniverse_Deterministic(t *testing.T) {
	end := time.Date(2024, 6, 28, 0, 0, 0, 0, time.UTC)
	a := DemoUniverse("000300", 14, 300, end, 1)
	b := DemoUniverse("000300", 14, 300, end, 1)

	ctx := context.Background()
	funds, err := a.ListCandidateFunds(ctx, contracts.FilterConfig{})
	require.NoError(t, err)
	require.Len(t, funds, 14)

	for _, f := range funds {
		navA, err := a.GetNavSeries(ctx, f.Code)
		require.NoError(t, err)
		navB, err := b.GetNavSeries(ctx, f.Code)
		require.NoError(t, err)
		assert.Equal(t, navA, navB)
		assert.Equal(t, end, navA[len(navA)-1].Date)
	}

	// every 7th fund is a short listing
	short, err := a.GetNavSeries(ctx, funds[6].Code)
	require.NoError(t, err)
	assert.Less(t, len(short), 60)
}

func TestCached_PassThroughWhenDisabled(t *testing.T) {
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)

	inner := newFlaky(0, nil)
	c := NewCached(inner, redis.NewCache(client, "test"), logger.Nop())

	for i := 0; i < 2; i++ {
		nav, err := c.GetNavSeries(context.Background(), "000001")
		require.NoError(t, err)
		assert.Len(t, nav, 2)
	}
	assert.Equal(t, 2, inner.Calls("000001"))
}

func TestCached_Redis(t *testing.T) {
	if os.Getenv("REDIS_HOST") == "" || testing.Short() {
		t.Skip("REDIS_HOST not set, skipping integration test")
	}

	client, err := redis.New(&config.Config{Redis: config.RedisConfig{
		Host:    os.Getenv("REDIS_HOST"),
		Port:    "6379",
		Enabled: true,
	}})
	require.NoError(t, err)
	defer client.Close()

	inner := newFlaky(0, nil)
	cache := redis.NewCache(client, "fundscope_test")
	c := NewCached(inner, cache, logger.Nop())
	c.now = func() time.Time { return time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	key := redis.NavHistoryKey("000001", "2024-01-05")
	require.NoError(t, cache.Delete(ctx, key))
	defer cache.Delete(ctx, key)

	first, err := c.GetNavSeries(ctx, "000001")
	require.NoError(t, err)
	second, err := c.GetNavSeries(ctx, "000001")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.Calls("000001"))
	require.Len(t, second, len(first))
	assert.True(t, first[1].Date.Equal(second[1].Date))
	assert.Equal(t, first[1].NAV, second[1].NAV)
}
