package commands

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/pkg/database"
	"github.com/wonny/fundscope/pkg/redis"
)

// healthCmd checks the backing services
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "PostgreSQL / Redis 연결 확인",
	Long: `데이터베이스와 Redis 연결을 확인하고 풀 통계를 표시합니다.

Example:
  go run ./cmd/fundscope health
  go run ./cmd/fundscope health --env production`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	fmt.Printf("✅ Config loaded (ENV: %s, STORE: %s)\n", cfg.Env, cfg.Pipeline.Store)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if cfg.Pipeline.Store == "postgres" {
		fmt.Printf("   Database URL: %s\n", maskPassword(cfg.Database.URL))

		db, err := database.New(cfg)
		if err != nil {
			PrintError("database connection failed")
			return err
		}
		defer db.Close()

		status, err := db.HealthCheck(ctx)
		if err != nil {
			PrintError("database health check failed")
			return err
		}

		PrintSuccess("Database healthy")
		PrintKeyValue("Response", status.ResponseTime.String(), 12)
		PrintKeyValue("Conns", fmt.Sprintf("%d total / %d idle / %d max",
			status.Stats.TotalConns, status.Stats.IdleConns, status.Stats.MaxConns), 12)
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		PrintError("redis connection failed")
		return err
	}
	defer rdb.Close()

	if rdb.Enabled() {
		latency, err := rdb.Ping(ctx)
		if err != nil {
			PrintError("redis ping failed")
			return err
		}
		PrintSuccess("Redis reachable")
		PrintKeyValue("Addr", redis.Addr(cfg.Redis), 12)
		PrintKeyValue("Response", latency.String(), 12)
	} else {
		PrintWarning("Redis disabled (REDIS_ENABLED=false): provider cache is a pass-through")
	}
	return nil
}

// maskPassword hides the password part of a connection URL
func maskPassword(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "****")
	}
	return u.String()
}
