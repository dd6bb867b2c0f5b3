package snapshot

import (
	"sync"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
)

// State build lifecycle of the orchestrator
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
)

// Status progress view of the current or last build.
// Readers always receive a copy; the orchestrator is the only writer.
type Status struct {
	State      State           `json:"state"`
	Generation uint64          `json:"generation"` // bumps on every accepted build
	BuildID    string          `json:"build_id,omitempty"`
	Stage      contracts.Stage `json:"stage"`
	Current    int             `json:"current"`
	Total      int             `json:"total"`
	Message    string          `json:"message"`
	Percentage float64         `json:"percentage"`
	UpdatedAt  time.Time       `json:"updated_at"`
	LastResult *Result         `json:"last_result,omitempty"`
}

// state single-flight guard plus last-write-wins progress record
// ⭐ SSOT: "빌드 중" 플래그와 진행 상태는 여기서만 변경
type state struct {
	mu     sync.Mutex
	status Status
	now    func() time.Time
}

func newState(now func() time.Time) *state {
	return &state{
		now: now,
		status: Status{
			State:     StateIdle,
			Stage:     contracts.StageIdle,
			Message:   contracts.StageIdle.Description(),
			UpdatedAt: now(),
		},
	}
}

// tryBegin flips Idle → Running. Returns false when a build is already running.
func (s *state) tryBegin(buildID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.State == StateRunning {
		return false
	}

	s.status = Status{
		State:      StateRunning,
		Generation: s.status.Generation + 1,
		BuildID:    buildID,
		Stage:      contracts.StageBenchmark,
		Message:    contracts.StageBenchmark.Description(),
		UpdatedAt:  s.now(),
		LastResult: s.status.LastResult,
	}
	return true
}

// update records progress of the running build
func (s *state) update(stage contracts.Stage, current, total int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.State != StateRunning {
		return
	}
	if message == "" {
		message = stage.Description()
	}

	s.status.Stage = stage
	s.status.Current = current
	s.status.Total = total
	s.status.Message = message
	s.status.Percentage = percentage(current, total)
	s.status.UpdatedAt = s.now()
}

// end releases the flag and stores the outcome
func (s *state) end(res Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stage := contracts.StageCompleted
	message := "completed"
	if res.Kind != ResultSuccess {
		stage = contracts.StageFailed
		message = res.Reason
	}

	last := res.clone()
	s.status.State = StateIdle
	s.status.Stage = stage
	s.status.Message = message
	s.status.UpdatedAt = s.now()
	s.status.LastResult = &last
}

func (s *state) running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status.State == StateRunning
}

// snapshot returns an immutable copy
func (s *state) snapshot() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.status
	if out.LastResult != nil {
		last := out.LastResult.clone()
		out.LastResult = &last
	}
	return out
}

func percentage(current, total int) float64 {
	if total <= 0 {
		return 0
	}
	p := float64(current) * 1000 / float64(total)
	return float64(int64(p+0.5)) / 10
}
