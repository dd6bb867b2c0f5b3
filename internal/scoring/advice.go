package scoring

import "github.com/wonny/fundscope/internal/contracts"

// AdviceKind investment style hint
type AdviceKind string

const (
	AdviceLongTermDCA  AdviceKind = "long_term_dca"
	AdviceShortTerm    AdviceKind = "short_term"
	AdviceBuyTheDip    AdviceKind = "buy_the_dip"
	AdviceBalancedCore AdviceKind = "balanced_core"
	AdviceDefensive    AdviceKind = "defensive"
	AdviceWait         AdviceKind = "wait"
)

// Advice hint shown on the fund detail view
type Advice struct {
	Kind   AdviceKind `json:"kind"`
	Reason string     `json:"reason"`
}

// AdviceFor picks the first matching rule
func AdviceFor(rec *contracts.MetricsRecord) Advice {
	switch {
	case rec.Sharpe > 1.5 && rec.MaxDrawdown > -0.20 && rec.Alpha > 0.05:
		return Advice{AdviceLongTermDCA, "high sharpe and positive alpha, suited to long-term holding"}
	case rec.Return1M != nil && *rec.Return1M > 0.03 && rec.CurrentDrawdown > -0.05:
		return Advice{AdviceShortTerm, "strong last month with a small drawdown"}
	case rec.CurrentDrawdown < -0.15 && rec.Sharpe > 1:
		return Advice{AdviceBuyTheDip, "quality fund in a pullback, build in tranches"}
	case rec.Sharpe > 1 && rec.Alpha > 0:
		return Advice{AdviceBalancedCore, "balanced risk and return, suited to a core position"}
	case rec.Beta < 0.8 && rec.MaxDrawdown > -0.15:
		return Advice{AdviceDefensive, "low beta and low drawdown"}
	default:
		return Advice{AdviceWait, "no entry signal yet"}
	}
}
