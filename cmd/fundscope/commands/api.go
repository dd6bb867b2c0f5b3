package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/api"
	"github.com/wonny/fundscope/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "API 서버 시작",
	Long: `REST API 서버를 시작합니다.

Endpoints:
  GET  /health                        - Health check
  POST /api/snapshots                 - 스냅샷 빌드 시작 (202 / 409)
  GET  /api/snapshots                 - 최근 스냅샷 목록
  GET  /api/snapshots/status          - 빌드 진행 상태
  GET  /api/snapshots/latest          - 최신 성공 스냅샷
  GET  /api/snapshots/latest/funds    - 최신 스냅샷 펀드 (theme, label, min_score, limit)
  GET  /api/funds/{code}              - 펀드 상세
  GET  /api/build-logs                - 작업 로그
  GET  /ws/snapshots/status           - 진행 상태 WebSocket

Example:
  go run ./cmd/fundscope api
  go run ./cmd/fundscope api --port 8080`,
	RunE: runAPIServer,
}

var (
	apiPort string
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 서버 포트 (default PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== fundscope API Server ===")

	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiPort != "" {
		cfg.Port = apiPort
	}

	// 2. Wire components
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.log

	// builds started over HTTP are cancelled on shutdown
	buildCtx, cancelBuilds := context.WithCancel(context.Background())
	defer cancelBuilds()

	a.startupSweep(buildCtx)

	// 3. Handlers + router
	router := api.NewRouter(
		handlers.NewSnapshotHandler(buildCtx, a.orch, a.store, a.logs, log),
		handlers.NewFundHandler(a.store, a.source, a.engine, log),
		handlers.NewStatusStream(a.orch, log),
		log,
	)

	// 4. Server
	server := api.New(cfg, log, router)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	log.Info("API server started successfully")
	fmt.Printf("\n✅ Server running on http://localhost:%s\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	cancelBuilds()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
