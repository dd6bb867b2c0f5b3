package contracts

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func TestNormalizeNav(t *testing.T) {
	in := []NavPoint{
		{Date: day(2), NAV: 1.02},
		{Date: day(0), NAV: 1.00},
		{Date: day(1), NAV: 1.01},
		{Date: day(1), NAV: 1.015}, // duplicate day, last wins
		{Date: day(3), NAV: 0},
		{Date: day(4), NAV: math.NaN()},
		{Date: day(5), NAV: -1},
	}

	out := NormalizeNav(in)
	require.Len(t, out, 3)
	assert.Equal(t, day(0), out[0].Date)
	assert.Equal(t, 1.015, out[1].NAV)
	assert.Equal(t, day(2), out[2].Date)

	// input untouched
	assert.Equal(t, day(2), in[0].Date)
	assert.Nil(t, NormalizeNav(nil))
}

func TestNormalizeBenchmark(t *testing.T) {
	out := NormalizeBenchmark([]BenchmarkPoint{
		{Date: day(1), Return: 0.01},
		{Date: day(0), Return: math.Inf(1)},
		{Date: day(0), Return: -0.02},
	})
	require.Len(t, out, 2)
	assert.Equal(t, -0.02, out[0].Return)
	assert.Equal(t, 0.01, out[1].Return)
}

func TestReturnsFromCloses(t *testing.T) {
	dates := []time.Time{day(0), day(1), day(2)}
	out := ReturnsFromCloses(dates, []float64{100, 110, 99})
	require.Len(t, out, 2)
	assert.InDelta(t, 0.10, out[0].Return, 1e-12)
	assert.InDelta(t, -0.10, out[1].Return, 1e-12)
	assert.Equal(t, day(2), out[1].Date)

	assert.Nil(t, ReturnsFromCloses(dates[:1], []float64{100}))
}

func TestRecordFilter_Match(t *testing.T) {
	rec := &MetricsRecord{
		Code:   "000001",
		Themes: []string{"新能源"},
		Labels: []Label{LabelTop10, LabelHighAlpha},
		Score:  72,
	}

	tests := []struct {
		name   string
		filter *RecordFilter
		want   bool
	}{
		{"nil filter", nil, true},
		{"empty filter", &RecordFilter{}, true},
		{"theme hit", &RecordFilter{Theme: "新能源"}, true},
		{"theme miss", &RecordFilter{Theme: "白酒"}, false},
		{"label hit", &RecordFilter{Label: LabelHighAlpha}, true},
		{"label miss", &RecordFilter{Label: LabelDefensive}, false},
		{"score boundary", &RecordFilter{MinScore: 72}, true},
		{"score too low", &RecordFilter{MinScore: 72.5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Match(rec))
		})
	}
}

func TestMetricsRecord_Helpers(t *testing.T) {
	r1m := 0.03
	rec := &MetricsRecord{
		MaxDrawdown:     -0.25,
		CurrentDrawdown: -0.05,
		Return1M:        &r1m,
		Labels:          []Label{LabelBalanced},
		Reasons:         []string{"balanced risk and return"},
	}

	assert.Equal(t, 0.25, rec.AbsMaxDrawdown())
	assert.Equal(t, 0.05, rec.AbsCurrentDrawdown())
	assert.Equal(t, "balanced risk and return", rec.PrimaryReason())

	clone := rec.Clone()
	*clone.Return1M = 0.5
	clone.Labels[0] = LabelTop10
	assert.Equal(t, 0.03, *rec.Return1M)
	assert.Equal(t, LabelBalanced, rec.Labels[0])

	assert.Equal(t, "", (&MetricsRecord{}).PrimaryReason())
}

func TestStages(t *testing.T) {
	for _, s := range BuildStages() {
		assert.True(t, IsValidStage(s.String()), s)
		assert.False(t, s.IsTerminal(), s)
	}
	assert.True(t, StageCompleted.IsTerminal())
	assert.True(t, IsValidStage("failed"))
	assert.False(t, IsValidStage("S0_DATA_QUALITY"))
}

func TestIsSoftFailure(t *testing.T) {
	assert.True(t, IsSoftFailure(fmt.Errorf("fund 000001: %w", ErrInsufficientData)))
	assert.True(t, IsSoftFailure(fmt.Errorf("wrap: %w", ErrFetchFailed)))
	assert.False(t, IsSoftFailure(ErrBenchmarkUnavailable))
	assert.False(t, IsSoftFailure(errors.New("other")))
}
