package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/fundscope/internal/contracts"
)

// fetchResult outcome of one NAV fetch
type fetchResult struct {
	Code  string
	Nav   []contracts.NavPoint
	Error error
}

// fetchAll drains the candidate queue with FetchWorkers goroutines.
// Failed fetches are recorded as soft failures; the map holds the rest.
func (b *build) fetchAll(ctx context.Context, funds []contracts.Fund) map[string][]contracts.NavPoint {
	o := b.o
	workers := o.cfg.FetchWorkers
	total := len(funds)

	b.log.WithFields(map[string]interface{}{
		"funds":   total,
		"workers": workers,
	}).Info("Starting NAV collection")
	o.state.update(contracts.StageFetchingNav, 0, total, "")

	codeCh := make(chan string, total)
	resultCh := make(chan fetchResult, total)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			b.navWorker(ctx, workerID, codeCh, resultCh)
		}(i)
	}

	for _, f := range funds {
		codeCh <- f.Code
	}
	close(codeCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	navs := make(map[string][]contracts.NavPoint, total)
	done := 0
	for result := range resultCh {
		done++
		if err := result.Error; err != nil {
			if !errors.Is(err, contracts.ErrFetchFailed) {
				err = fmt.Errorf("%w: %w", contracts.ErrFetchFailed, err)
			}
			b.failures.add(result.Code, err)
		} else {
			navs[result.Code] = result.Nav
		}
		o.state.update(contracts.StageFetchingNav, done, total, "")
	}

	b.log.WithFields(map[string]interface{}{
		"success": len(navs),
		"failed":  b.failures.FetchFailed,
		"total":   total,
	}).Info("NAV collection completed")
	return navs
}

// navWorker fetches NAV history for codes from codeCh
func (b *build) navWorker(ctx context.Context, workerID int, codeCh <-chan string, resultCh chan<- fetchResult) {
	for code := range codeCh {
		select {
		case <-ctx.Done():
			resultCh <- fetchResult{Code: code, Error: ctx.Err()}
			continue
		default:
		}

		nav, err := b.o.provider.GetNavSeries(ctx, code)
		if err != nil {
			b.log.WithError(err).WithFields(map[string]interface{}{
				"worker":    workerID,
				"fund_code": code,
			}).Warn("Failed to fetch NAV")
			resultCh <- fetchResult{Code: code, Error: err}
			continue
		}

		resultCh <- fetchResult{Code: code, Nav: nav}
	}
}

// computeAll runs the metrics engine per fetched fund in parallel.
// ErrInsufficientData is a soft failure; any other engine error aborts the build.
func (b *build) computeAll(funds []contracts.Fund, navs map[string][]contracts.NavPoint, bench []contracts.BenchmarkPoint) ([]*contracts.MetricsRecord, error) {
	o := b.o

	fetched := make([]contracts.Fund, 0, len(navs))
	for _, f := range funds {
		if _, ok := navs[f.Code]; ok {
			fetched = append(fetched, f)
		}
	}

	total := len(fetched)
	o.state.update(contracts.StageCalculating, 0, total, "")

	records := make([]*contracts.MetricsRecord, total)
	errs := make([]error, total)

	var mu sync.Mutex
	done := 0

	var g errgroup.Group
	g.SetLimit(o.cfg.FetchWorkers)
	for i, f := range fetched {
		g.Go(func() error {
			rec, err := o.engine.Compute(f.Code, navs[f.Code], bench)

			mu.Lock()
			done++
			o.state.update(contracts.StageCalculating, done, total, "")
			mu.Unlock()

			if err != nil {
				if errors.Is(err, contracts.ErrInsufficientData) {
					errs[i] = err
					return nil
				}
				return fmt.Errorf("metrics %s: %w", f.Code, err)
			}

			rec.Name = f.Name
			rec.FundType = f.Type
			rec.Themes = append([]string(nil), f.Themes...)
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*contracts.MetricsRecord, 0, total)
	for i, rec := range records {
		if errs[i] != nil {
			b.failures.add(fetched[i].Code, errs[i])
			continue
		}
		if rec != nil {
			out = append(out, rec)
		}
	}

	b.log.WithFields(map[string]interface{}{
		"computed":          len(out),
		"insufficient_data": b.failures.InsufficientData,
	}).Info("Metrics calculated")
	return out, nil
}
