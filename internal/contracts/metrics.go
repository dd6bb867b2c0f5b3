package contracts

import "math"

// Label 투자 성향 라벨
type Label string

const (
	LabelTop10      Label = "TOP10"
	LabelHighAlpha  Label = "HighAlpha"
	LabelLongTerm   Label = "LongTerm"
	LabelShortTerm  Label = "ShortTerm"
	LabelDefensive  Label = "Defensive"
	LabelAggressive Label = "Aggressive"
	LabelBalanced   Label = "Balanced"
)

// Grade buckets
const (
	GradeAPlus = "A+"
	GradeA     = "A"
	GradeB     = "B"
	GradeC     = "C"
	GradeD     = "D"
)

// MetricsRecord one fund's evaluation inside one snapshot
// ⭐ SSOT: 모든 수익률/리스크 값은 비율(0.12 = 12%). 표시용 절대값은 Abs* 헬퍼 사용
type MetricsRecord struct {
	Code     string   `json:"code"`
	Name     string   `json:"name,omitempty"`
	FundType string   `json:"fund_type,omitempty"`
	Themes   []string `json:"themes,omitempty"`

	LatestNav  float64 `json:"latest_nav"`
	LatestDate string  `json:"latest_date"` // YYYY-MM-DD

	// 기간 수익률 (이력이 짧으면 nil)
	Return1W *float64 `json:"return_1w"`
	Return1M *float64 `json:"return_1m"`
	Return3M *float64 `json:"return_3m"`
	Return6M *float64 `json:"return_6m"`
	Return1Y *float64 `json:"return_1y"`

	AnnualReturn    float64 `json:"annual_return"`
	Volatility      float64 `json:"volatility"`
	MaxDrawdown     float64 `json:"max_drawdown"`     // <= 0
	CurrentDrawdown float64 `json:"current_drawdown"` // <= 0, >= MaxDrawdown

	Sharpe  float64 `json:"sharpe"`
	Sortino float64 `json:"sortino"`
	Calmar  float64 `json:"calmar"`

	Alpha         float64 `json:"alpha"`
	Beta          float64 `json:"beta"`
	InfoRatio     float64 `json:"info_ratio"`
	Treynor       float64 `json:"treynor"`
	TrackingError float64 `json:"tracking_error"`

	WinRate          float64 `json:"win_rate"`
	ProfitLossRatio  float64 `json:"profit_loss_ratio"`
	DownsideSharpe   float64 `json:"downside_sharpe"`
	AlphaConsistency float64 `json:"alpha_consistency"` // [0, 1]
	DataPoints       int     `json:"data_points"`

	// 점수/등급/라벨 (scoring 단계에서 채움)
	Score   float64  `json:"score"`
	Grade   string   `json:"grade"`
	Labels  []Label  `json:"labels"`
	Reasons []string `json:"reasons"` // Labels와 같은 순서
	Rank    int      `json:"rank"`    // 1-based, 0 = unranked
}

// AbsMaxDrawdown returns |MaxDrawdown|
func (r *MetricsRecord) AbsMaxDrawdown() float64 {
	return math.Abs(r.MaxDrawdown)
}

// AbsCurrentDrawdown returns |CurrentDrawdown|
func (r *MetricsRecord) AbsCurrentDrawdown() float64 {
	return math.Abs(r.CurrentDrawdown)
}

// HasLabel checks if the record carries label
func (r *MetricsRecord) HasLabel(label Label) bool {
	for _, l := range r.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// HasTheme checks if the record's fund is tagged with theme
func (r *MetricsRecord) HasTheme(theme string) bool {
	for _, t := range r.Themes {
		if t == theme {
			return true
		}
	}
	return false
}

// PrimaryReason returns the reason attached to the first label
func (r *MetricsRecord) PrimaryReason() string {
	if len(r.Reasons) == 0 {
		return ""
	}
	return r.Reasons[0]
}

// Clone returns a deep copy
func (r *MetricsRecord) Clone() *MetricsRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.Return1W = cloneFloat(r.Return1W)
	c.Return1M = cloneFloat(r.Return1M)
	c.Return3M = cloneFloat(r.Return3M)
	c.Return6M = cloneFloat(r.Return6M)
	c.Return1Y = cloneFloat(r.Return1Y)
	c.Themes = append([]string(nil), r.Themes...)
	c.Labels = append([]Label(nil), r.Labels...)
	c.Reasons = append([]string(nil), r.Reasons...)
	return &c
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
