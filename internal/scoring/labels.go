package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/fundscope/internal/contracts"
)

// AssignLabels tags each record of an already ranked slice (index = rank-1).
// Several labels may apply; Balanced only when none of the others do.
// The first label's reason is the primary reason shown to users.
func AssignLabels(ranked []*contracts.MetricsRecord) {
	for i, rec := range ranked {
		labels, reasons := labelsFor(i, rec)
		rec.Labels = labels
		rec.Reasons = reasons
	}
}

func labelsFor(rankIndex int, rec *contracts.MetricsRecord) ([]contracts.Label, []string) {
	var labels []contracts.Label
	var reasons []string
	add := func(l contracts.Label, reason string) {
		labels = append(labels, l)
		reasons = append(reasons, reason)
	}

	absDD := math.Abs(rec.MaxDrawdown)

	if rankIndex < 10 {
		add(contracts.LabelTop10, "top 10 by composite score")
	}
	if rec.Alpha > 0.10 {
		add(contracts.LabelHighAlpha, fmt.Sprintf("alpha %.2f%%", rec.Alpha*100))
	}
	if rec.Sharpe > 1.5 && absDD < 0.20 {
		add(contracts.LabelLongTerm, "high sharpe with shallow drawdown")
	}
	if rec.Volatility > 0.25 && rec.WinRate > 0.55 {
		add(contracts.LabelShortTerm, "high volatility with high win rate")
	}
	if absDD < 0.15 && rec.Volatility < 0.15 {
		add(contracts.LabelDefensive, "low drawdown and low volatility")
	}
	if rec.AnnualReturn > 0.30 && rec.Alpha > 0.05 {
		add(contracts.LabelAggressive, "high return with positive alpha")
	}
	if len(labels) == 0 {
		add(contracts.LabelBalanced, "steady overall profile")
	}
	return labels, reasons
}
