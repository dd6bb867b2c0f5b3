package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/internal/contracts"
)

func TestAssignLabels(t *testing.T) {
	filler := func(n int) []*contracts.MetricsRecord {
		out := make([]*contracts.MetricsRecord, n)
		for i := range out {
			out[i] = &contracts.MetricsRecord{MaxDrawdown: -0.4, Volatility: 0.2}
		}
		return out
	}

	tests := []struct {
		name      string
		rankIndex int
		rec       *contracts.MetricsRecord
		want      []contracts.Label
	}{
		{
			name:      "top ranked high alpha long term",
			rankIndex: 0,
			rec:       &contracts.MetricsRecord{Alpha: 0.12, Sharpe: 1.6, MaxDrawdown: -0.18, Volatility: 0.2},
			want:      []contracts.Label{contracts.LabelTop10, contracts.LabelHighAlpha, contracts.LabelLongTerm},
		},
		{
			name:      "short term",
			rankIndex: 10,
			rec:       &contracts.MetricsRecord{Volatility: 0.3, WinRate: 0.56, MaxDrawdown: -0.4},
			want:      []contracts.Label{contracts.LabelShortTerm},
		},
		{
			name:      "defensive",
			rankIndex: 11,
			rec:       &contracts.MetricsRecord{Volatility: 0.1, MaxDrawdown: -0.12},
			want:      []contracts.Label{contracts.LabelDefensive},
		},
		{
			name:      "aggressive",
			rankIndex: 12,
			rec:       &contracts.MetricsRecord{AnnualReturn: 0.35, Alpha: 0.06, Volatility: 0.3, MaxDrawdown: -0.35},
			want:      []contracts.Label{contracts.LabelAggressive},
		},
		{
			name:      "balanced fallback",
			rankIndex: 13,
			rec:       &contracts.MetricsRecord{Volatility: 0.2, MaxDrawdown: -0.25},
			want:      []contracts.Label{contracts.LabelBalanced},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ranked := filler(tt.rankIndex + 1)
			ranked[tt.rankIndex] = tt.rec

			AssignLabels(ranked)

			assert.Equal(t, tt.want, tt.rec.Labels)
			require.Len(t, tt.rec.Reasons, len(tt.rec.Labels))
			assert.NotEmpty(t, tt.rec.PrimaryReason())
		})
	}
}

func TestAssignLabels_PrimaryReasonFollowsOrder(t *testing.T) {
	rec := &contracts.MetricsRecord{Alpha: 0.123, MaxDrawdown: -0.4, Volatility: 0.2}
	AssignLabels([]*contracts.MetricsRecord{rec})

	assert.Equal(t, []contracts.Label{contracts.LabelTop10, contracts.LabelHighAlpha}, rec.Labels)
	assert.Equal(t, "top 10 by composite score", rec.PrimaryReason())
	assert.Equal(t, "alpha 12.30%", rec.Reasons[1])
}

func TestAdviceFor(t *testing.T) {
	strongMonth := 0.05

	tests := []struct {
		name string
		rec  *contracts.MetricsRecord
		want AdviceKind
	}{
		{"long term", &contracts.MetricsRecord{Sharpe: 1.6, MaxDrawdown: -0.1, Alpha: 0.06}, AdviceLongTermDCA},
		{"short term", &contracts.MetricsRecord{Return1M: &strongMonth, CurrentDrawdown: -0.01, MaxDrawdown: -0.3}, AdviceShortTerm},
		{"buy the dip", &contracts.MetricsRecord{Sharpe: 1.2, CurrentDrawdown: -0.2, MaxDrawdown: -0.3}, AdviceBuyTheDip},
		{"balanced core", &contracts.MetricsRecord{Sharpe: 1.2, Alpha: 0.01, MaxDrawdown: -0.3}, AdviceBalancedCore},
		{"defensive", &contracts.MetricsRecord{Beta: 0.6, MaxDrawdown: -0.1}, AdviceDefensive},
		{"wait", &contracts.MetricsRecord{Beta: 1, MaxDrawdown: -0.3}, AdviceWait},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AdviceFor(tt.rec).Kind)
		})
	}
}
