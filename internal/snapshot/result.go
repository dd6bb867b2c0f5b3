package snapshot

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
)

// maxFailureSamples per-build cap on recorded soft-failure reasons
const maxFailureSamples = 20

// Request parameters of one build
type Request struct {
	MaxQualified int  `json:"max_qualified"` // 0 = configured default
	SkipFilter   bool `json:"skip_filter"`
}

// ResultKind outcome of CreateSnapshot
type ResultKind string

const (
	ResultBusy    ResultKind = "busy"
	ResultSuccess ResultKind = "success"
	ResultFailed  ResultKind = "failed"
)

// Result structured outcome of CreateSnapshot
type Result struct {
	Kind            ResultKind      `json:"kind"`
	BuildID         string          `json:"build_id,omitempty"`
	SnapshotID      int64           `json:"snapshot_id,omitempty"`
	QualifiedCount  int             `json:"qualified_count"`
	TotalCandidates int             `json:"total_candidates"`
	Elapsed         time.Duration   `json:"elapsed"`
	Failures        FailureSummary  `json:"failures"`
	Stage           contracts.Stage `json:"stage,omitempty"` // stage of a hard failure
	Reason          string          `json:"reason,omitempty"`
	Err             error           `json:"-"`
}

func (r Result) clone() Result {
	c := r
	c.Failures = r.Failures.clone()
	return c
}

// FailureSummary soft failures of one build
type FailureSummary struct {
	FetchFailed      int               `json:"fetch_failed"`
	InsufficientData int               `json:"insufficient_data"`
	Samples          map[string]string `json:"samples,omitempty"` // code → reason
}

// Total soft failures
func (f FailureSummary) Total() int {
	return f.FetchFailed + f.InsufficientData
}

func (f *FailureSummary) add(code string, err error) {
	if errors.Is(err, contracts.ErrInsufficientData) {
		f.InsufficientData++
	} else {
		f.FetchFailed++
	}

	if len(f.Samples) >= maxFailureSamples {
		return
	}
	if f.Samples == nil {
		f.Samples = make(map[string]string)
	}
	f.Samples[code] = err.Error()
}

func (f FailureSummary) clone() FailureSummary {
	c := f
	if f.Samples != nil {
		c.Samples = make(map[string]string, len(f.Samples))
		for k, v := range f.Samples {
			c.Samples[k] = v
		}
	}
	return c
}

// String one-line summary for logs and the build log message
func (f FailureSummary) String() string {
	s := fmt.Sprintf("fetch_failed=%d insufficient_data=%d", f.FetchFailed, f.InsufficientData)
	if len(f.Samples) == 0 {
		return s
	}

	codes := make([]string, 0, len(f.Samples))
	for code := range f.Samples {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	if len(codes) > 5 {
		codes = codes[:5]
	}
	return s + " samples=" + strings.Join(codes, ",")
}
