package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/fundscope/internal/contracts"
)

// relativeStats benchmark-relative indicators; zero values except beta=1 when
// the aligned series is too short
type relativeStats struct {
	alpha         float64
	beta          float64
	infoRatio     float64
	treynor       float64
	trackingError float64
	consistency   float64
}

// align inner-joins fund daily returns with benchmark returns on calendar day.
// Fund return i belongs to the date of nav[i+1].
func align(nav []contracts.NavPoint, returns []float64, bench []contracts.BenchmarkPoint) (fund, base []float64) {
	if len(bench) == 0 || len(returns) == 0 {
		return nil, nil
	}

	byDay := make(map[string]float64, len(bench))
	for _, b := range bench {
		if math.IsNaN(b.Return) || math.IsInf(b.Return, 0) {
			continue
		}
		byDay[contracts.DateKey(b.Date)] = b.Return
	}

	fund = make([]float64, 0, len(returns))
	base = make([]float64, 0, len(returns))
	for i, r := range returns {
		if br, ok := byDay[contracts.DateKey(nav[i+1].Date)]; ok {
			fund = append(fund, r)
			base = append(base, br)
		}
	}
	return fund, base
}

func (e *Engine) relative(nav []contracts.NavPoint, returns []float64, bench []contracts.BenchmarkPoint, excess float64) relativeStats {
	out := relativeStats{beta: 1, consistency: 0.5}

	fund, base := align(nav, returns, bench)
	if len(fund) == 0 {
		return out
	}
	out.consistency = e.alphaConsistency(fund, base)

	if len(fund) < MinAlignedPoints {
		return out
	}

	out.alpha, out.beta = e.alphaBeta(fund, base)

	diff := make([]float64, len(fund))
	for i := range fund {
		diff[i] = fund[i] - base[i]
	}
	out.trackingError = annualizedStdDev(diff)
	out.infoRatio = safeDiv(stat.Mean(diff, nil)*TradingDaysPerYear, out.trackingError)
	out.treynor = safeDiv(excess, out.beta)
	return out
}

// alphaBeta regression beta (sample Cov / sample Var) and annualized Jensen alpha
func (e *Engine) alphaBeta(fund, base []float64) (alpha, beta float64) {
	rf := e.cfg.RiskFreeRate

	beta = 1
	if v := stat.Variance(base, nil); v > 0 && !math.IsNaN(v) {
		beta = finite(stat.Covariance(fund, base, nil)/v, 1)
	}

	fundAnnual := math.Pow(1+stat.Mean(fund, nil), TradingDaysPerYear) - 1
	baseAnnual := math.Pow(1+stat.Mean(base, nil), TradingDaysPerYear) - 1
	alpha = finite(fundAnnual-(rf+beta*(baseAnnual-rf)), 0)
	return alpha, beta
}

// alphaConsistency 1 - coefficient of variation of per-window alphas, clamped to [0,1].
// Windows are ConsistencyWindow long with half-window stride; fewer than two → 0.5.
func (e *Engine) alphaConsistency(fund, base []float64) float64 {
	const stride = ConsistencyWindow / 2

	var alphas []float64
	for end := ConsistencyWindow; end <= len(fund); end += stride {
		a, _ := e.alphaBeta(fund[end-ConsistencyWindow:end], base[end-ConsistencyWindow:end])
		alphas = append(alphas, a)
	}
	if len(alphas) < 2 {
		return 0.5
	}

	mean := stat.Mean(alphas, nil)
	cv := 1.0
	if math.Abs(mean) > 1e-3 {
		cv = finite(math.Abs(stat.StdDev(alphas, nil)/mean), 1)
	}
	return clamp(1-cv, 0, 1)
}
