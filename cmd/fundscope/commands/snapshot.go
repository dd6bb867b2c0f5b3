package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/snapshot"
)

// snapshotCmd represents the snapshot command
var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "스냅샷 빌드 및 조회",
	Long: `스냅샷을 생성하거나 조회합니다.

Subcommands:
  create  - 스냅샷 빌드 실행 (foreground)
  latest  - 최신 성공 스냅샷과 순위표
  list    - 최근 스냅샷 목록
  sweep   - 오래된 running 스냅샷을 failed 처리

Example:
  go run ./cmd/fundscope snapshot create --max-qualified 100
  go run ./cmd/fundscope snapshot latest --top 20 --theme 红利`,
}

var (
	snapshotCreateCmd = &cobra.Command{
		Use:   "create",
		Short: "스냅샷 빌드 실행",
		RunE:  runSnapshotCreate,
	}

	snapshotLatestCmd = &cobra.Command{
		Use:   "latest",
		Short: "최신 성공 스냅샷 조회",
		RunE:  runSnapshotLatest,
	}

	snapshotListCmd = &cobra.Command{
		Use:   "list",
		Short: "최근 스냅샷 목록",
		RunE:  runSnapshotList,
	}

	snapshotSweepCmd = &cobra.Command{
		Use:   "sweep",
		Short: "stale running 스냅샷 정리",
		RunE:  runSnapshotSweep,
	}
)

var (
	createMaxQualified int
	createSkipFilter   bool

	latestTop   int
	latestTheme string
	latestLabel string

	listLimit int
)

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotCreateCmd)
	snapshotCmd.AddCommand(snapshotLatestCmd)
	snapshotCmd.AddCommand(snapshotListCmd)
	snapshotCmd.AddCommand(snapshotSweepCmd)

	snapshotCreateCmd.Flags().IntVar(&createMaxQualified, "max-qualified", 0, "결과 상한 (0 = config MAX_QUALIFIED)")
	snapshotCreateCmd.Flags().BoolVar(&createSkipFilter, "skip-filter", false, "후보 필터 생략 (전체 목록)")

	snapshotLatestCmd.Flags().IntVar(&latestTop, "top", 20, "출력할 펀드 수")
	snapshotLatestCmd.Flags().StringVar(&latestTheme, "theme", "", "테마 필터")
	snapshotLatestCmd.Flags().StringVar(&latestLabel, "label", "", "라벨 필터")

	snapshotListCmd.Flags().IntVar(&listLimit, "limit", 20, "최대 개수")
}

func runSnapshotCreate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.startupSweep(ctx)

	res := a.orch.CreateSnapshot(ctx, snapshot.Request{
		MaxQualified: createMaxQualified,
		SkipFilter:   createSkipFilter,
	})
	PrintResult(res)

	switch res.Kind {
	case snapshot.ResultSuccess:
		return nil
	case snapshot.ResultBusy:
		return contracts.ErrBusy
	default:
		return res.Err
	}
}

func runSnapshotLatest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()

	snap, err := a.store.GetLatestSuccessfulSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("get latest snapshot: %w", err)
	}
	if snap == nil {
		PrintWarning("no snapshot yet")
		return nil
	}

	recs, err := a.store.GetMetricsRecords(ctx, snap.ID, &contracts.RecordFilter{
		Theme: latestTheme,
		Label: contracts.Label(latestLabel),
		Limit: latestTop,
	})
	if err != nil {
		return fmt.Errorf("get records: %w", err)
	}

	PrintDoubleSeparator()
	PrintSnapshot(snap)
	PrintSeparator()
	PrintRanking(recs)
	return nil
}

func runSnapshotList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	snaps, err := a.store.ListSnapshots(context.Background(), listLimit)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}

	widths := []int{6, 10, 8, 10, 20}
	PrintTableHeader([]string{"ID", "Date", "Status", "Qualified", "Created"}, widths)
	for _, s := range snaps {
		PrintTableRow([]string{
			fmt.Sprintf("%d", s.ID),
			contracts.DateKey(s.Date),
			string(s.Status),
			fmt.Sprintf("%d/%d", s.QualifiedCount, s.TotalCandidates),
			s.CreatedAt.Format("2006-01-02 15:04:05"),
		}, widths)
	}
	return nil
}

func runSnapshotSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.orch.Sweep(context.Background(), cfg.Pipeline.StaleSnapshotAfter)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	PrintSuccess(fmt.Sprintf("%d stale snapshot(s) marked failed", n))
	return nil
}
