package handlers

import "github.com/wonny/fundscope/internal/contracts"

// FundView metrics record as returned to clients.
// Drawdowns are stored negative; the *_abs fields carry the positive magnitude for display.
type FundView struct {
	*contracts.MetricsRecord
	MaxDrawdownAbs     float64 `json:"max_drawdown_abs"`
	CurrentDrawdownAbs float64 `json:"current_drawdown_abs"`
}

func newFundView(rec *contracts.MetricsRecord) FundView {
	return FundView{
		MetricsRecord:      rec,
		MaxDrawdownAbs:     rec.AbsMaxDrawdown(),
		CurrentDrawdownAbs: rec.AbsCurrentDrawdown(),
	}
}

func newFundViews(recs []*contracts.MetricsRecord) []FundView {
	views := make([]FundView, len(recs))
	for i, rec := range recs {
		views[i] = newFundView(rec)
	}
	return views
}
