package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/scheduler"
	"github.com/wonny/fundscope/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 등록 작업을 조회합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록

Example:
  go run ./cmd/fundscope scheduler start
  go run ./cmd/fundscope scheduler list`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- snapshot_build: 매일 (SNAPSHOT_CRON, 기본 02:00). 오늘 성공 스냅샷이 있으면 건너뜀
- stale_snapshot_sweep: 30분마다 (STALE_SNAPSHOT_AFTER 초과 running 스냅샷 failed 처리)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== fundscope Scheduler ===")

	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	a.startupSweep(context.Background())

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, sched, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer a.Close()

	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()

	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		stat := stats[name]
		line := fmt.Sprintf("  - %s (%s)", name, stat.Schedule)
		if stat.NextRun != nil {
			line += fmt.Sprintf(" next: %s", stat.NextRun.Format("2006-01-02 15:04:05"))
		}
		fmt.Println(line)
	}
}

func initScheduler() (*app, *scheduler.Scheduler, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	a, err := newApp(cfg)
	if err != nil {
		return nil, nil, err
	}

	sched := scheduler.New(a.log)

	if err := sched.AddJob(jobs.NewSnapshotBuildJob(a.orch, a.store, cfg.Pipeline.SnapshotCron, a.log)); err != nil {
		a.Close()
		return nil, nil, err
	}
	if err := sched.AddJob(jobs.NewStaleSweepJob(a.orch, cfg.Pipeline.StaleSnapshotAfter, a.log)); err != nil {
		a.Close()
		return nil, nil, err
	}

	return a, sched, nil
}
