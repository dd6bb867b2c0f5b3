package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/provider"
	"github.com/wonny/fundscope/internal/scoring"
	"github.com/wonny/fundscope/internal/snapshot"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/pkg/logger"
)

// demoCmd runs a full build offline
var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "합성 데이터로 전체 빌드 실행",
	Long: `외부 API와 DB 없이 합성 펀드 유니버스로 스냅샷을 빌드하고 순위표를 출력합니다.

Example:
  go run ./cmd/fundscope demo
  go run ./cmd/fundscope demo --funds 100 --days 750 --top 30`,
	RunE: runDemo,
}

var (
	demoFunds int
	demoDays  int
	demoSeed  int64
	demoTop   int
)

func init() {
	rootCmd.AddCommand(demoCmd)

	demoCmd.Flags().IntVar(&demoFunds, "funds", 60, "합성 펀드 수")
	demoCmd.Flags().IntVar(&demoDays, "days", 500, "NAV 이력 영업일 수")
	demoCmd.Flags().Int64Var(&demoSeed, "seed", 42, "난수 시드")
	demoCmd.Flags().IntVar(&demoTop, "top", 20, "출력할 펀드 수")
}

func runDemo(cmd *cobra.Command, args []string) error {
	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level, "development")

	const benchmark = "000300"
	source := provider.DemoUniverse(benchmark, demoFunds, demoDays, time.Now(), demoSeed)
	mem := store.NewMemory()

	orch := snapshot.New(
		source,
		metrics.NewEngine(metrics.DefaultConfig()),
		scoring.NewRubric(log),
		mem,
		mem,
		snapshot.Config{
			Benchmark:         benchmark,
			BenchmarkLookback: time.Duration(demoDays*2) * 24 * time.Hour,
			MinDataDays:       metrics.DefaultConfig().MinDataDays,
			FetchWorkers:      4,
			MaxQualified:      demoFunds,
			FinalizeTimeout:   time.Second,
		},
		log,
	)

	ctx := context.Background()
	res := orch.CreateSnapshot(ctx, snapshot.Request{})
	PrintResult(res)
	if res.Kind != snapshot.ResultSuccess {
		return res.Err
	}

	recs, err := mem.GetMetricsRecords(ctx, res.SnapshotID, nil)
	if err != nil {
		return fmt.Errorf("get records: %w", err)
	}
	if demoTop > 0 && len(recs) > demoTop {
		recs = recs[:demoTop]
	}

	fmt.Println()
	PrintRanking(recs)
	return nil
}
