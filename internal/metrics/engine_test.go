package metrics

import (
	"math"
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/internal/contracts"
)

var origin = time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)

// tradingDate spaces observations so that 252 of them span exactly 365 days
func tradingDate(i int) time.Time {
	return origin.AddDate(0, 0, int(math.Round(float64(i)*365/252)))
}

func navFromValues(values []float64) []contracts.NavPoint {
	out := make([]contracts.NavPoint, len(values))
	for i, v := range values {
		out[i] = contracts.NavPoint{Date: tradingDate(i), NAV: v}
	}
	return out
}

// navFromReturns builds a NAV series starting at 1.0; return i lands on date i+1
func navFromReturns(returns []float64) []contracts.NavPoint {
	values := make([]float64, len(returns)+1)
	values[0] = 1
	for i, r := range returns {
		values[i+1] = values[i] * (1 + r)
	}
	return navFromValues(values)
}

func benchFromReturns(returns []float64) []contracts.BenchmarkPoint {
	out := make([]contracts.BenchmarkPoint, len(returns))
	for i, r := range returns {
		out[i] = contracts.BenchmarkPoint{Date: tradingDate(i + 1), Return: r}
	}
	return out
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func randomWalk(seed int64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	values[0] = 1
	for i := 1; i < n; i++ {
		values[i] = values[i-1] * (1 + rng.NormFloat64()*0.015)
	}
	return values
}

func assertAllFinite(t *testing.T, rec *contracts.MetricsRecord) {
	t.Helper()
	v := reflect.ValueOf(*rec)
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		name := v.Type().Field(i).Name
		switch f.Kind() {
		case reflect.Float64:
			x := f.Float()
			assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "%s is not finite: %v", name, x)
		case reflect.Ptr:
			if !f.IsNil() && f.Elem().Kind() == reflect.Float64 {
				x := f.Elem().Float()
				assert.False(t, math.IsNaN(x) || math.IsInf(x, 0), "%s is not finite: %v", name, x)
			}
		}
	}
}

func TestCompute_InsufficientData(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	tests := []struct {
		name string
		nav  []contracts.NavPoint
	}{
		{"empty", nil},
		{"one point", navFromValues([]float64{1})},
		{"59 points", navFromValues(flat(59, 1))},
		{
			name: "60 points but one duplicate day",
			nav: func() []contracts.NavPoint {
				nav := navFromValues(flat(60, 1))
				nav[59].Date = nav[58].Date
				return nav
			}(),
		},
		{
			name: "60 points but one non-positive",
			nav: func() []contracts.NavPoint {
				nav := navFromValues(flat(60, 1))
				nav[10].NAV = 0
				return nav
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := engine.Compute("000001", tt.nav, nil)
			assert.ErrorIs(t, err, contracts.ErrInsufficientData)
			assert.Nil(t, rec)
		})
	}
}

func TestCompute_FlatSeries(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	rec, err := engine.Compute("000001", navFromValues(flat(60, 1.0)), nil)
	require.NoError(t, err)
	assertAllFinite(t, rec)

	assert.Equal(t, 0.0, rec.Volatility)
	assert.Equal(t, 0.0, rec.Sharpe)
	assert.Equal(t, 0.0, rec.MaxDrawdown)
	assert.Equal(t, 0.0, rec.CurrentDrawdown)
	assert.Equal(t, 0.0, rec.Calmar)
	assert.Equal(t, 0.0, rec.AnnualReturn)
	assert.Equal(t, 0.0, rec.WinRate)
	assert.Equal(t, 0.0, rec.ProfitLossRatio)
	// downside deviation floored at 1e-3
	assert.InDelta(t, -25.0, rec.Sortino, 1e-9)
	assert.Equal(t, rec.Sortino, rec.DownsideSharpe)
	assert.Equal(t, 1.0, rec.Beta)
	assert.Equal(t, 0.0, rec.Alpha)
	assert.Equal(t, 0.5, rec.AlphaConsistency)
	assert.Equal(t, 60, rec.DataPoints)
}

func TestCompute_DoublingEveryYear(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	values := make([]float64, 3*252+1)
	for i := range values {
		values[i] = math.Pow(2, float64(i)/252)
	}

	rec, err := engine.Compute("000001", navFromValues(values), nil)
	require.NoError(t, err)
	assertAllFinite(t, rec)

	assert.InDelta(t, 1.0, rec.AnnualReturn, 1e-5)
	assert.Equal(t, 1.0, rec.Beta)
	assert.Equal(t, 0.0, rec.Alpha)
	require.NotNil(t, rec.Return1Y)
	assert.InDelta(t, 1.0, *rec.Return1Y, 1e-5)
	assert.Equal(t, 0.0, rec.MaxDrawdown)
	assert.InDelta(t, 8.0, rec.LatestNav, 1e-4)
	assert.Equal(t, 1.0, rec.WinRate)
}

func TestCompute_PeriodReturns(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	values := make([]float64, 60)
	for i := range values {
		values[i] = 1 + float64(i)*0.01
	}

	rec, err := engine.Compute("000001", navFromValues(values), nil)
	require.NoError(t, err)

	require.NotNil(t, rec.Return1W)
	require.NotNil(t, rec.Return1M)
	assert.InDelta(t, values[59]/values[54]-1, *rec.Return1W, 1e-6)
	assert.InDelta(t, values[59]/values[37]-1, *rec.Return1M, 1e-6)
	assert.Nil(t, rec.Return3M)
	assert.Nil(t, rec.Return6M)
	assert.Nil(t, rec.Return1Y)
}

func TestCompute_Drawdowns(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	values := append(flat(57, 1.0), 1.2, 0.9, 1.08)
	rec, err := engine.Compute("000001", navFromValues(values), nil)
	require.NoError(t, err)

	assert.InDelta(t, -0.25, rec.MaxDrawdown, 1e-9)
	assert.InDelta(t, -0.10, rec.CurrentDrawdown, 1e-9)
	assert.InDelta(t, 0.25, rec.AbsMaxDrawdown(), 1e-9)
}

func TestCompute_DrawdownInvariant(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	for seed := int64(1); seed <= 25; seed++ {
		rec, err := engine.Compute("000001", navFromValues(randomWalk(seed, 300)), nil)
		require.NoError(t, err)
		assertAllFinite(t, rec)
		assert.LessOrEqual(t, rec.MaxDrawdown, rec.CurrentDrawdown, "seed %d", seed)
		assert.LessOrEqual(t, rec.CurrentDrawdown, 0.0, "seed %d", seed)
		assert.GreaterOrEqual(t, rec.AlphaConsistency, 0.0)
		assert.LessOrEqual(t, rec.AlphaConsistency, 1.0)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	nav := navFromValues(randomWalk(42, 400))
	benchReturns := make([]float64, 399)
	rng := rand.New(rand.NewSource(7))
	for i := range benchReturns {
		benchReturns[i] = rng.NormFloat64() * 0.01
	}
	bench := benchFromReturns(benchReturns)

	first, err := engine.Compute("000001", nav, bench)
	require.NoError(t, err)
	second, err := engine.Compute("000001", nav, bench)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCompute_BetaFromLeveredFund(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	n := 200
	benchReturns := make([]float64, n)
	fundReturns := make([]float64, n)
	for i := range benchReturns {
		benchReturns[i] = 0.01 * math.Sin(float64(i)*0.7)
		fundReturns[i] = 2 * benchReturns[i]
	}

	rec, err := engine.Compute("000001", navFromReturns(fundReturns), benchFromReturns(benchReturns))
	require.NoError(t, err)
	assertAllFinite(t, rec)

	assert.InDelta(t, 2.0, rec.Beta, 1e-4)
	// fund - bench == bench, so tracking error is the benchmark's annualized stdev
	assert.InDelta(t, annualizedStdDev(benchReturns), rec.TrackingError, 1e-6)

	rf := DefaultConfig().RiskFreeRate
	fundAnnual := math.Pow(1+mean(fundReturns), 252) - 1
	benchAnnual := math.Pow(1+mean(benchReturns), 252) - 1
	assert.InDelta(t, fundAnnual-(rf+2*(benchAnnual-rf)), rec.Alpha, 1e-5)
	assert.InDelta(t, (rec.AnnualReturn-rf)/2, rec.Treynor, 1e-4)
}

func TestCompute_TooFewAlignedPoints(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	fundReturns := make([]float64, 100)
	for i := range fundReturns {
		fundReturns[i] = 0.002 * math.Cos(float64(i))
	}
	// only 29 benchmark days overlap the fund series
	bench := benchFromReturns(fundReturns[:29])

	rec, err := engine.Compute("000001", navFromReturns(fundReturns), bench)
	require.NoError(t, err)

	assert.Equal(t, 1.0, rec.Beta)
	assert.Equal(t, 0.0, rec.Alpha)
	assert.Equal(t, 0.0, rec.TrackingError)
	assert.Equal(t, 0.0, rec.InfoRatio)
	assert.Equal(t, 0.5, rec.AlphaConsistency)
}

func TestCompute_ZeroVarianceBenchmark(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	fundReturns := make([]float64, 100)
	for i := range fundReturns {
		fundReturns[i] = 0.003 * math.Sin(float64(i))
	}

	rec, err := engine.Compute("000001", navFromReturns(fundReturns), benchFromReturns(flat(100, 0)))
	require.NoError(t, err)
	assertAllFinite(t, rec)
	assert.Equal(t, 1.0, rec.Beta)
}

func TestAlphaConsistency(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	periodic := func(n int) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = 0.01 * (float64(i%6) - 2.5) / 2.5
		}
		return out
	}

	t.Run("stable alpha across windows", func(t *testing.T) {
		base := periodic(200)
		fund := make([]float64, len(base))
		for i := range base {
			fund[i] = base[i] + 0.001
		}
		assert.InDelta(t, 1.0, engine.alphaConsistency(fund, base), 1e-6)
	})

	t.Run("fewer than two windows", func(t *testing.T) {
		base := periodic(89)
		assert.Equal(t, 0.5, engine.alphaConsistency(base, base))
	})

	t.Run("near-zero mean alpha", func(t *testing.T) {
		base := periodic(200)
		// beta 1, fund == bench: alpha ~ 0 in every window
		assert.Equal(t, 0.0, engine.alphaConsistency(base, base))
	})
}

func TestWinLoss(t *testing.T) {
	win, pl := winLoss([]float64{0.01, -0.02, 0.03, 0})
	assert.InDelta(t, 0.5, win, 1e-12)
	assert.InDelta(t, 1.0, pl, 1e-12)

	win, pl = winLoss([]float64{0.002, 0.004})
	assert.Equal(t, 1.0, win)
	assert.InDelta(t, 3.0, pl, 1e-12)

	win, pl = winLoss(nil)
	assert.Equal(t, 0.0, win)
	assert.Equal(t, 0.0, pl)
}

func TestDownsideDeviation_Floor(t *testing.T) {
	assert.Equal(t, DownsideFloor, downsideDeviation([]float64{0.01, 0.02, 0.03}, 0.0001))
	assert.Equal(t, DownsideFloor, downsideDeviation([]float64{-0.01}, 0.0001))
	assert.Greater(t, downsideDeviation([]float64{-0.01, -0.03, 0.02}, 0.0001), DownsideFloor)
}

func TestSafeDiv(t *testing.T) {
	assert.Equal(t, 0.0, safeDiv(1, 0))
	assert.Equal(t, 0.0, safeDiv(math.Inf(1), 1))
	assert.Equal(t, 2.0, safeDiv(4, 2))
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}
