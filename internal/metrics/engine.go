// Package metrics turns one fund's NAV series plus a benchmark return series
// into the fixed set of risk/return indicators stored on a MetricsRecord.
//
// Engine is pure: no I/O, no clock, no randomness. Identical input yields an
// identical record.
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fundscope/internal/contracts"
)

const (
	// TradingDaysPerYear annualization factor for daily statistics
	TradingDaysPerYear = 252

	// MinAlignedPoints aligned fund/benchmark observations required for Alpha/Beta
	MinAlignedPoints = 30

	// ConsistencyWindow rolling window (observations) for alpha consistency; stride is half
	ConsistencyWindow = 60

	// DownsideFloor lower bound for the annualized downside deviation
	DownsideFloor = 1e-3

	// emptyLossAverage used as the average loss when no daily return is negative
	emptyLossAverage = 1e-3
)

// periodLookbacks observation counts for the 1W/1M/3M/6M/1Y returns
var periodLookbacks = [5]int{5, 22, 66, 132, 252}

// Config holds engine parameters
type Config struct {
	RiskFreeRate float64 // annual
	MinDataDays  int     // minimum usable NAV points
}

// DefaultConfig returns the default engine parameters
func DefaultConfig() Config {
	return Config{
		RiskFreeRate: 0.025,
		MinDataDays:  60,
	}
}

// Engine computes MetricsRecords
// ⭐ SSOT: 지표 계산 공식은 여기서만
type Engine struct {
	cfg Config
}

// NewEngine creates a new metrics engine
func NewEngine(cfg Config) *Engine {
	if cfg.MinDataDays < 2 {
		cfg.MinDataDays = 2
	}
	return &Engine{cfg: cfg}
}

// Config returns the engine parameters
func (e *Engine) Config() Config {
	return e.cfg
}

// Compute evaluates one fund. bench may be empty.
// Returns contracts.ErrInsufficientData (wrapped) when nav has fewer than
// MinDataDays usable points; no partial record is ever returned.
func (e *Engine) Compute(code string, nav []contracts.NavPoint, bench []contracts.BenchmarkPoint) (*contracts.MetricsRecord, error) {
	nav = contracts.NormalizeNav(nav)
	if len(nav) < e.cfg.MinDataDays {
		return nil, fmt.Errorf("fund %s: %d points < %d: %w", code, len(nav), e.cfg.MinDataDays, contracts.ErrInsufficientData)
	}

	rf := e.cfg.RiskFreeRate
	dailyRf := rf / TradingDaysPerYear

	values := navValues(nav)
	returns := dailyReturns(values)

	last := nav[len(nav)-1]
	rec := &contracts.MetricsRecord{
		Code:       code,
		LatestNav:  last.NAV,
		LatestDate: contracts.DateKey(last.Date),
		DataPoints: len(nav),
	}

	// 1. 수익률
	totalReturn := values[len(values)-1]/values[0] - 1
	spanDays := int(math.Round(last.Date.Sub(nav[0].Date).Hours() / 24))
	annual := annualizedReturn(totalReturn, spanDays)

	periods := make([]*float64, len(periodLookbacks))
	for i, k := range periodLookbacks {
		periods[i] = periodReturn(values, k)
	}
	rec.Return1W, rec.Return1M, rec.Return3M, rec.Return6M, rec.Return1Y = periods[0], periods[1], periods[2], periods[3], periods[4]

	// 2. 리스크
	volatility := annualizedStdDev(returns)
	maxDD, curDD := drawdowns(values)
	downside := downsideDeviation(returns, dailyRf)

	// 3. 위험조정 수익
	excess := annual - rf
	sharpe := safeDiv(excess, volatility)
	sortino := safeDiv(excess, downside)
	calmar := math.Abs(safeDiv(annual, maxDD))

	// 4. 벤치마크 상대 지표
	rel := e.relative(nav, returns, bench, excess)

	// 5. 통계
	winRate, plRatio := winLoss(returns)

	rec.AnnualReturn = annual
	rec.Volatility = volatility
	rec.MaxDrawdown = maxDD
	rec.CurrentDrawdown = curDD
	rec.Sharpe = sharpe
	rec.Sortino = sortino
	rec.Calmar = calmar
	rec.Alpha = rel.alpha
	rec.Beta = rel.beta
	rec.InfoRatio = rel.infoRatio
	rec.Treynor = rel.treynor
	rec.TrackingError = rel.trackingError
	rec.AlphaConsistency = rel.consistency
	rec.WinRate = winRate
	rec.ProfitLossRatio = plRatio
	rec.DownsideSharpe = sortino

	roundRecord(rec)
	return rec, nil
}

func navValues(nav []contracts.NavPoint) []float64 {
	out := make([]float64, len(nav))
	for i, p := range nav {
		out[i] = p.NAV
	}
	return out
}

// dailyReturns nav[t]/nav[t-1]-1, len(values)-1 entries
func dailyReturns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = values[i]/values[i-1] - 1
	}
	return out
}

// annualizedReturn compounds over the calendar span, not a trading-day count
func annualizedReturn(totalReturn float64, spanDays int) float64 {
	if spanDays <= 0 {
		return 0
	}
	return finite(math.Pow(1+totalReturn, 365/float64(spanDays))-1, 0)
}

// periodReturn looks back k observations; nil when the series is too short
func periodReturn(values []float64, k int) *float64 {
	n := len(values)
	if n <= k {
		return nil
	}
	r := values[n-1]/values[n-1-k] - 1
	return &r
}

// annualizedStdDev sample standard deviation × √252; 0 for fewer than 2 points
func annualizedStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return finite(stat.StdDev(xs, nil)*math.Sqrt(TradingDaysPerYear), 0)
}

// drawdowns walks the running-max path and returns (min, last); both <= 0
func drawdowns(values []float64) (maxDD, curDD float64) {
	peak := values[0]
	for _, v := range values {
		if v > peak {
			peak = v
		}
		dd := (v - peak) / peak
		if dd < maxDD {
			maxDD = dd
		}
		curDD = dd
	}
	return maxDD, curDD
}

// downsideDeviation annualized stdev of returns below the daily risk-free rate, floored
func downsideDeviation(returns []float64, dailyRf float64) float64 {
	below := make([]float64, 0, len(returns))
	for _, r := range returns {
		if r < dailyRf {
			below = append(below, r)
		}
	}
	return math.Max(annualizedStdDev(below), DownsideFloor)
}

// winLoss fraction of positive days and mean gain / mean |loss|
func winLoss(returns []float64) (winRate, plRatio float64) {
	if len(returns) == 0 {
		return 0, 0
	}

	var gains, losses []float64
	for _, r := range returns {
		switch {
		case r > 0:
			gains = append(gains, r)
		case r < 0:
			losses = append(losses, r)
		}
	}

	winRate = float64(len(gains)) / float64(len(returns))

	avgWin := 0.0
	if len(gains) > 0 {
		avgWin = stat.Mean(gains, nil)
	}
	avgLoss := emptyLossAverage
	if len(losses) > 0 {
		avgLoss = math.Abs(stat.Mean(losses, nil))
	}
	return winRate, safeDiv(avgWin, avgLoss)
}

// safeDiv returns 0 for a zero denominator or a non-finite result
func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return finite(num/den, 0)
}

func finite(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
