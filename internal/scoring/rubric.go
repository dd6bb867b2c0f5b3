// Package scoring turns MetricsRecords into a composite score, grade,
// rank and labels.
package scoring

import (
	"math"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/pkg/logger"
)

const (
	// BaseScore starting point before tier bonuses
	BaseScore = 20

	// DefaultPeerPercentile used when no batch context is available
	DefaultPeerPercentile = 50.0
)

// Result composite score and grade of one record
type Result struct {
	Score int    `json:"score"`
	Grade string `json:"grade"`
}

// Rubric implements the discrete-tier multi-factor score
// ⭐ SSOT: 점수 산출 규칙은 여기서만 (보간 없음, 재현성 보장)
type Rubric struct {
	logger *logger.Logger
}

// NewRubric creates a new rubric
func NewRubric(log *logger.Logger) *Rubric {
	return &Rubric{logger: log.WithField("module", "scoring")}
}

// Score evaluates rec at the given peer percentile (0-100)
func (r *Rubric) Score(rec *contracts.MetricsRecord, peerPercentile float64) Result {
	score := rawScore(rec, peerPercentile)
	return Result{Score: score, Grade: Grade(score)}
}

// rawScore sums the tier bonuses; integer valued, clamped to [0, 100]
func rawScore(rec *contracts.MetricsRecord, peerPercentile float64) int {
	score := BaseScore

	score += sharpeTier(rec.Sharpe)
	score += drawdownTier(math.Abs(rec.MaxDrawdown))
	score += alphaTier(rec.Alpha)
	score += downsideSharpeTier(rec.DownsideSharpe)
	score += consistencyTier(rec.AlphaConsistency)
	score += peerTier(peerPercentile)
	score += infoRatioTier(rec.InfoRatio)
	score += winRateTier(rec.WinRate)

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// 샤프 (최고 20점)
func sharpeTier(v float64) int {
	switch {
	case v >= 2:
		return 20
	case v >= 1.5:
		return 16
	case v >= 1:
		return 10
	case v >= 0.5:
		return 5
	case v < 0:
		return -10
	}
	return 0
}

// 최대낙폭 절대값 (최고 15점)
func drawdownTier(absDD float64) int {
	switch {
	case absDD < 0.10:
		return 15
	case absDD < 0.20:
		return 10
	case absDD < 0.30:
		return 5
	case absDD > 0.50:
		return -10
	}
	return 0
}

// 알파 (최고 12점)
func alphaTier(v float64) int {
	switch {
	case v > 0.15:
		return 12
	case v > 0.10:
		return 8
	case v > 0.05:
		return 4
	case v < -0.10:
		return -8
	}
	return 0
}

// 하방 샤프 (최고 8점)
func downsideSharpeTier(v float64) int {
	switch {
	case v >= 2:
		return 8
	case v >= 1.5:
		return 6
	case v >= 1:
		return 4
	case v >= 0.5:
		return 2
	}
	return 0
}

// 알파 안정성 (최고 8점)
func consistencyTier(v float64) int {
	switch {
	case v >= 0.8:
		return 8
	case v >= 0.6:
		return 6
	case v >= 0.4:
		return 4
	case v >= 0.2:
		return 2
	}
	return 0
}

// 동종 백분위 (최고 10점)
func peerTier(pct float64) int {
	switch {
	case pct >= 90:
		return 10
	case pct >= 75:
		return 7
	case pct >= 50:
		return 4
	case pct >= 25:
		return 2
	}
	return 0
}

func infoRatioTier(v float64) int {
	switch {
	case v > 1:
		return 5
	case v > 0.5:
		return 2
	}
	return 0
}

func winRateTier(v float64) int {
	switch {
	case v > 0.55:
		return 5
	case v > 0.52:
		return 2
	}
	return 0
}

// Grade maps a score to its letter grade
func Grade(score int) string {
	switch {
	case score >= 85:
		return contracts.GradeAPlus
	case score >= 75:
		return contracts.GradeA
	case score >= 65:
		return contracts.GradeB
	case score >= 55:
		return contracts.GradeC
	default:
		return contracts.GradeD
	}
}
