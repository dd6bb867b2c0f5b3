// Package provider holds MarketDataProvider decorators (retry + rate gate,
// redis cache) and an in-memory fixture provider.
package provider

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/pkg/logger"
)

// RetryPolicy exponential backoff parameters
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	BackoffFactor float64
	MaxDelay      time.Duration
}

// DefaultRetryPolicy 5 attempts, 3s initial delay, doubling
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:   5,
		InitialDelay:  3 * time.Second,
		BackoffFactor: 2,
		MaxDelay:      time.Minute,
	}
}

// delay before attempt n+1 (n is 1-based)
func (p RetryPolicy) delay(n int) time.Duration {
	factor := p.BackoffFactor
	if factor < 1 {
		factor = 1
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(n-1)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Resilient wraps a provider with retry/backoff and a shared rate gate.
// The gate (burst 1) enforces a minimum interval between call starts across
// every goroutine using this wrapper; work after the call is not serialized.
// ⭐ SSOT: 재시도/속도제한 정책은 여기서만 (transport 레벨 재시도는 끔)
type Resilient struct {
	inner   contracts.MarketDataProvider
	policy  RetryPolicy
	limiter *rate.Limiter
	logger  *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewResilient creates the wrapper. minInterval <= 0 disables the gate.
func NewResilient(inner contracts.MarketDataProvider, policy RetryPolicy, minInterval time.Duration, log *logger.Logger) *Resilient {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}

	limit := rate.Inf
	if minInterval > 0 {
		limit = rate.Every(minInterval)
	}

	return &Resilient{
		inner:   inner,
		policy:  policy,
		limiter: rate.NewLimiter(limit, 1),
		logger:  log.WithField("module", "provider"),
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GetNavSeries fetches with retry; ErrNotFound is returned at once.
// Exhausted retries return an error wrapping contracts.ErrFetchFailed.
func (r *Resilient) GetNavSeries(ctx context.Context, code string) ([]contracts.NavPoint, error) {
	var out []contracts.NavPoint
	err := r.do(ctx, "nav:"+code, func(ctx context.Context) error {
		var err error
		out, err = r.inner.GetNavSeries(ctx, code)
		return err
	})
	return out, err
}

// GetBenchmarkSeries fetches with retry
func (r *Resilient) GetBenchmarkSeries(ctx context.Context, symbol string, start time.Time) ([]contracts.BenchmarkPoint, error) {
	var out []contracts.BenchmarkPoint
	err := r.do(ctx, "benchmark:"+symbol, func(ctx context.Context) error {
		var err error
		out, err = r.inner.GetBenchmarkSeries(ctx, symbol, start)
		return err
	})
	return out, err
}

// ListCandidateFunds fetches with retry
func (r *Resilient) ListCandidateFunds(ctx context.Context, filter contracts.FilterConfig) ([]contracts.Fund, error) {
	var out []contracts.Fund
	err := r.do(ctx, "candidates", func(ctx context.Context) error {
		var err error
		out, err = r.inner.ListCandidateFunds(ctx, filter)
		return err
	})
	return out, err
}

func (r *Resilient) do(ctx context.Context, op string, call func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if err := r.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: rate gate: %w", op, err)
		}

		lastErr = call(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, contracts.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, lastErr)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", op, ctx.Err())
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.policy.delay(attempt)
		r.logger.WithFields(map[string]interface{}{
			"op":      op,
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   lastErr.Error(),
		}).Warn("Provider call failed, retrying")

		if err := r.sleep(ctx, delay); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return fmt.Errorf("%s after %d attempts: %w: %w", op, r.policy.MaxAttempts, contracts.ErrFetchFailed, lastErr)
}
