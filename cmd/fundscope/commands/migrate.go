package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/internal/store/postgres"
	"github.com/wonny/fundscope/pkg/database"
	"github.com/wonny/fundscope/pkg/logger"
)

// migrateCmd creates the fund schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "DB 스키마 생성",
	Long: `fund 스키마와 테이블을 생성합니다 (IF NOT EXISTS, 반복 실행 안전).

Example:
  go run ./cmd/fundscope migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Pipeline.Store != "postgres" {
		return fmt.Errorf("migrate requires STORE=postgres")
	}
	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := postgres.New(db.Pool).EnsureSchema(ctx); err != nil {
		return err
	}

	log.Info("Schema ready")
	PrintSuccess("schema ready")
	return nil
}
