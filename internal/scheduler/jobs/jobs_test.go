package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/snapshot"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

type fakeBuilder struct {
	result   snapshot.Result
	requests []snapshot.Request
}

func (f *fakeBuilder) CreateSnapshot(ctx context.Context, req snapshot.Request) snapshot.Result {
	f.requests = append(f.requests, req)
	return f.result
}

func at(hour int) func() time.Time {
	return func() time.Time { return time.Date(2024, 6, 3, hour, 0, 0, 0, time.Local) }
}

func TestSnapshotBuildJob_SkipFilterWindow(t *testing.T) {
	tests := []struct {
		hour int
		want bool
	}{
		{0, true},
		{2, true},
		{4, true},
		{5, false},
		{14, false},
	}

	for _, tt := range tests {
		b := &fakeBuilder{result: snapshot.Result{Kind: snapshot.ResultSuccess}}
		j := NewSnapshotBuildJob(b, store.NewMemory(), "", logger.Nop())
		j.now = at(tt.hour)

		require.NoError(t, j.Run(context.Background()))
		require.Len(t, b.requests, 1)
		assert.Equal(t, tt.want, b.requests[0].SkipFilter, "hour %d", tt.hour)
	}
}

func TestSnapshotBuildJob_SkipsWhenTodayExists(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	now := at(3)

	id, err := mem.CreateSnapshot(ctx, now(), 1, "000300")
	require.NoError(t, err)
	require.NoError(t, mem.CompleteSnapshot(ctx, id, 1, contracts.SnapshotSuccess, ""))

	b := &fakeBuilder{}
	j := NewSnapshotBuildJob(b, mem, "", logger.Nop())
	j.now = now

	require.NoError(t, j.Run(ctx))
	assert.Empty(t, b.requests)

	j.now = func() time.Time { return now().AddDate(0, 0, 1) }
	b.result = snapshot.Result{Kind: snapshot.ResultSuccess}
	require.NoError(t, j.Run(ctx))
	assert.Len(t, b.requests, 1)
}

func TestSnapshotBuildJob_Outcomes(t *testing.T) {
	cause := contracts.ErrBenchmarkUnavailable

	tests := []struct {
		name    string
		result  snapshot.Result
		wantErr error
	}{
		{"success", snapshot.Result{Kind: snapshot.ResultSuccess}, nil},
		{"busy is not a failure", snapshot.Result{Kind: snapshot.ResultBusy}, nil},
		{"failed", snapshot.Result{Kind: snapshot.ResultFailed, Stage: contracts.StageBenchmark, Err: cause}, cause},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewSnapshotBuildJob(&fakeBuilder{result: tt.result}, store.NewMemory(), "", logger.Nop())
			err := j.Run(context.Background())
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSnapshotBuildJob_Metadata(t *testing.T) {
	j := NewSnapshotBuildJob(&fakeBuilder{}, store.NewMemory(), "", logger.Nop())
	assert.Equal(t, "snapshot_build", j.Name())
	assert.Equal(t, "0 0 2 * * *", j.Schedule())
	assert.Equal(t, 0, j.MaxRetries())
}

type fakeSweeper struct {
	n   int
	err error
	got time.Duration
}

func (f *fakeSweeper) Sweep(ctx context.Context, staleAfter time.Duration) (int, error) {
	f.got = staleAfter
	return f.n, f.err
}

func TestStaleSweepJob(t *testing.T) {
	s := &fakeSweeper{n: 2}
	j := NewStaleSweepJob(s, 6*time.Hour, logger.Nop())

	require.NoError(t, j.Run(context.Background()))
	assert.Equal(t, 6*time.Hour, s.got)
	assert.Equal(t, "stale_snapshot_sweep", j.Name())

	s.err = errors.New("db down")
	assert.Error(t, j.Run(context.Background()))
}
