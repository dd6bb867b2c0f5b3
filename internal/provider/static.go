package provider

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
)

// Static serves fixed in-memory series. Used by tests and the demo command.
type Static struct {
	mu        sync.RWMutex
	funds     []contracts.Fund
	nav       map[string][]contracts.NavPoint
	benchmark map[string][]contracts.BenchmarkPoint
	navErr    map[string]error
	calls     map[string]int
}

// NewStatic creates an empty fixture provider
func NewStatic() *Static {
	return &Static{
		nav:       make(map[string][]contracts.NavPoint),
		benchmark: make(map[string][]contracts.BenchmarkPoint),
		navErr:    make(map[string]error),
		calls:     make(map[string]int),
	}
}

// AddFund registers a fund and its NAV history
func (s *Static) AddFund(f contracts.Fund, nav []contracts.NavPoint) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.funds = append(s.funds, f)
	s.nav[f.Code] = nav
	return s
}

// SetBenchmark registers a benchmark return series
func (s *Static) SetBenchmark(symbol string, series []contracts.BenchmarkPoint) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.benchmark[symbol] = series
	return s
}

// FailNav makes GetNavSeries for code return err
func (s *Static) FailNav(code string, err error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.navErr[code] = err
	return s
}

// Calls number of GetNavSeries calls for code
func (s *Static) Calls(code string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls[code]
}

func (s *Static) GetNavSeries(ctx context.Context, code string) ([]contracts.NavPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[code]++

	if err, ok := s.navErr[code]; ok {
		return nil, err
	}
	nav, ok := s.nav[code]
	if !ok {
		return nil, fmt.Errorf("fund %s: %w", code, contracts.ErrNotFound)
	}
	return append([]contracts.NavPoint(nil), nav...), nil
}

func (s *Static) GetBenchmarkSeries(ctx context.Context, symbol string, start time.Time) ([]contracts.BenchmarkPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	series, ok := s.benchmark[symbol]
	if !ok {
		return nil, fmt.Errorf("benchmark %s: %w", symbol, contracts.ErrNotFound)
	}
	out := make([]contracts.BenchmarkPoint, 0, len(series))
	for _, p := range series {
		if !p.Date.Before(start) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Static) ListCandidateFunds(ctx context.Context, _ contracts.FilterConfig) ([]contracts.Fund, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]contracts.Fund(nil), s.funds...)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

// DemoUniverse builds a deterministic synthetic universe: n funds with
// business-day NAV histories of the given length ending at end, plus a
// benchmark series for symbol over the same days.
func DemoUniverse(symbol string, n, days int, end time.Time, seed int64) *Static {
	rng := rand.New(rand.NewSource(seed))
	s := NewStatic()

	dates := businessDays(end, days)
	benchReturns := make([]float64, len(dates))
	bench := make([]contracts.BenchmarkPoint, len(dates))
	for i, d := range dates {
		benchReturns[i] = 0.0003 + rng.NormFloat64()*0.012
		bench[i] = contracts.BenchmarkPoint{Date: d, Return: benchReturns[i]}
	}
	s.SetBenchmark(symbol, bench)

	themes := []string{"新能源", "医药医疗", "科技TMT", "红利", "大消费", "综合"}
	types := []string{"混合型-偏股", "股票型", "股票指数", "QDII-股票型"}

	for k := 0; k < n; k++ {
		beta := 0.5 + rng.Float64()
		drift := (rng.Float64() - 0.4) * 0.0015
		noise := 0.004 + rng.Float64()*0.012

		// newer listings get shorter histories
		length := len(dates)
		if k%7 == 6 {
			length = 20 + rng.Intn(30)
		}
		start := len(dates) - length

		nav := make([]contracts.NavPoint, 0, length)
		v := 1.0
		for i := start; i < len(dates); i++ {
			if i > start {
				v *= 1 + drift + beta*benchReturns[i] + rng.NormFloat64()*noise
				v = math.Max(v, 0.05)
			}
			nav = append(nav, contracts.NavPoint{Date: dates[i], NAV: v})
		}

		code := fmt.Sprintf("%06d", 100001+k)
		s.AddFund(contracts.Fund{
			Code:   code,
			Name:   fmt.Sprintf("示例基金%03d", k+1),
			Type:   types[k%len(types)],
			Themes: []string{themes[k%len(themes)]},
		}, nav)
	}
	return s
}

// businessDays the last n weekdays ending at or before end, ascending
func businessDays(end time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	d := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for len(out) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			out = append(out, d)
		}
		d = d.AddDate(0, 0, -1)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
