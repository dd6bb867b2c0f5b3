package contracts

// Snapshot build stage 정의 (SSOT)
// 모든 로그, 진행 상태, build log row에서 이 상수를 사용해야 함
//
// 빌드 흐름:
//   benchmark → candidates → fetching_nav → calculating → scoring → ranking → persisting → completed
//                                                                                          ↘ failed

// Stage represents a snapshot build stage
type Stage string

const (
	StageIdle Stage = "idle"

	// StageBenchmark: 벤치마크 일간 수익률 조회
	StageBenchmark Stage = "benchmark"

	// StageCandidates: 후보 펀드 목록 조회 + 필터링
	StageCandidates Stage = "candidates"

	// StageFetchingNav: 펀드별 NAV 이력 병렬 수집
	StageFetchingNav Stage = "fetching_nav"

	// StageCalculating: 펀드별 지표 계산
	StageCalculating Stage = "calculating"

	// StageScoring: 2-pass 점수 산출 (peer percentile 포함)
	StageScoring Stage = "scoring"

	// StageRanking: 정렬, 상위 N 절단, 라벨 부여
	StageRanking Stage = "ranking"

	// StagePersisting: 스냅샷 기록 및 success 전환
	StagePersisting Stage = "persisting"

	StageCompleted Stage = "completed"
	StageFailed    Stage = "failed"
)

// String returns the stage name
func (s Stage) String() string {
	return string(s)
}

// Description returns a human readable description of the stage
func (s Stage) Description() string {
	switch s {
	case StageIdle:
		return "대기"
	case StageBenchmark:
		return "fetching benchmark series"
	case StageCandidates:
		return "listing candidate funds"
	case StageFetchingNav:
		return "fetching NAV history"
	case StageCalculating:
		return "calculating metrics"
	case StageScoring:
		return "scoring"
	case StageRanking:
		return "ranking and labeling"
	case StagePersisting:
		return "persisting snapshot"
	case StageCompleted:
		return "completed"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further stage follows
func (s Stage) IsTerminal() bool {
	return s == StageCompleted || s == StageFailed
}

// BuildStages returns the working stages in execution order
func BuildStages() []Stage {
	return []Stage{
		StageBenchmark,
		StageCandidates,
		StageFetchingNav,
		StageCalculating,
		StageScoring,
		StageRanking,
		StagePersisting,
	}
}

// IsValidStage checks if a stage string is valid
func IsValidStage(s string) bool {
	switch Stage(s) {
	case StageIdle, StageCompleted, StageFailed:
		return true
	}
	for _, stage := range BuildStages() {
		if string(stage) == s {
			return true
		}
	}
	return false
}
