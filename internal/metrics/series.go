package metrics

import (
	"github.com/wonny/fundscope/internal/contracts"
)

const (
	// RollingDrawdownWindow lookback for the rolling peak
	RollingDrawdownWindow = 252
	rollingMinPeriods     = 20
	rollingTail           = 60
)

// DrawdownPoint one point on the rolling drawdown path
type DrawdownPoint struct {
	Date     string  `json:"date"`
	Drawdown float64 `json:"drawdown"` // fraction, <= 0
}

// ChartPoint one point on the NAV chart
type ChartPoint struct {
	Date string  `json:"date"`
	NAV  float64 `json:"nav"`
}

// RollingDrawdown drawdown against the peak of the trailing window.
// Points before rollingMinPeriods observations are skipped; only the last 60 are returned.
func (e *Engine) RollingDrawdown(nav []contracts.NavPoint, window int) []DrawdownPoint {
	if window <= 0 {
		window = RollingDrawdownWindow
	}
	nav = contracts.NormalizeNav(nav)

	start := len(nav) - rollingTail
	if start < 0 {
		start = 0
	}

	out := make([]DrawdownPoint, 0, len(nav)-start)
	for i := start; i < len(nav); i++ {
		if i+1 < rollingMinPeriods {
			continue
		}
		from := i - window + 1
		if from < 0 {
			from = 0
		}
		peak := nav[from].NAV
		for _, p := range nav[from : i+1] {
			if p.NAV > peak {
				peak = p.NAV
			}
		}
		out = append(out, DrawdownPoint{
			Date:     contracts.DateKey(nav[i].Date),
			Drawdown: round((nav[i].NAV-peak)/peak, fractionPlaces),
		})
	}
	return out
}

// ChartSeries the last n NAV points
func (e *Engine) ChartSeries(nav []contracts.NavPoint, n int) []ChartPoint {
	nav = contracts.NormalizeNav(nav)
	if n > 0 && len(nav) > n {
		nav = nav[len(nav)-n:]
	}

	out := make([]ChartPoint, len(nav))
	for i, p := range nav {
		out[i] = ChartPoint{
			Date: contracts.DateKey(p.Date),
			NAV:  round(p.NAV, navPlaces),
		}
	}
	return out
}
