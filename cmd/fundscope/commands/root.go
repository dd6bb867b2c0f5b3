package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/wonny/fundscope/pkg/config"
)

var (
	// Global flags
	configFile string
	env        string
	storeKind  string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fundscope",
	Short: "fundscope - 공모펀드 정량 평가 스냅샷",
	Long: `fundscope Unified CLI

Batch evaluation of mutual funds against a benchmark index.
Each build produces an immutable snapshot of ranked, scored and labelled funds.

Usage:
  go run ./cmd/fundscope [command]

Examples:
  go run ./cmd/fundscope demo
  go run ./cmd/fundscope migrate
  go run ./cmd/fundscope snapshot create --max-qualified 100
  go run ./cmd/fundscope api --port 8080
  go run ./cmd/fundscope scheduler start`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "environment (development|staging|production)")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "", "snapshot store (postgres|memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig applies the global flags on top of the environment
func loadConfig() (*config.Config, error) {
	if configFile != "" {
		if err := godotenv.Load(configFile); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}
	if env != "" {
		os.Setenv("ENV", env)
	}
	if storeKind != "" {
		os.Setenv("STORE", storeKind)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}
