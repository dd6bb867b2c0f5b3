package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Eastmoney EastmoneyConfig

	// Analytics parameters (metrics engine)
	Analytics AnalyticsConfig

	// Snapshot pipeline
	Pipeline PipelineConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// EastmoneyConfig holds the fund data provider endpoints
type EastmoneyConfig struct {
	FundBaseURL  string // fund list + NAV history
	QuoteBaseURL string // index klines
	Timeout      time.Duration
	NavPages     int    // NAV history pages fetched per fund
	FilterFile   string // optional YAML candidate rules; empty = built-in
}

// AnalyticsConfig holds metrics engine parameters
type AnalyticsConfig struct {
	RiskFreeRate     float64 // annual
	MinDataDays      int
	DefaultBenchmark string
}

// PipelineConfig holds snapshot build parameters
type PipelineConfig struct {
	MaxQualified          int
	FetchWorkers          int
	FetchMaxAttempts      int
	FetchRetryDelay       time.Duration
	FetchBackoffFactor    float64
	RateLimitInterval     time.Duration
	BenchmarkLookbackDays int
	StaleSnapshotAfter    time.Duration
	SnapshotCron          string
	Store                 string // postgres, memory
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "fundscope"),
			User:            getEnv("DB_USER", "fundscope"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		Eastmoney: EastmoneyConfig{
			FundBaseURL:  getEnv("EASTMONEY_FUND_URL", "https://fund.eastmoney.com"),
			QuoteBaseURL: getEnv("EASTMONEY_QUOTE_URL", "https://push2his.eastmoney.com"),
			Timeout:      getEnvAsDuration("EASTMONEY_TIMEOUT", "30s"),
			NavPages:     getEnvAsInt("EASTMONEY_NAV_PAGES", 12),
			FilterFile:   getEnv("EASTMONEY_FILTER_FILE", ""),
		},

		Analytics: AnalyticsConfig{
			RiskFreeRate:     getEnvAsFloat("RISK_FREE_RATE", 0.025),
			MinDataDays:      getEnvAsInt("MIN_DATA_DAYS", 60),
			DefaultBenchmark: getEnv("DEFAULT_BENCHMARK", "000300"),
		},

		Pipeline: PipelineConfig{
			MaxQualified:          getEnvAsInt("MAX_QUALIFIED", 230),
			FetchWorkers:          getEnvAsInt("FETCH_WORKERS", 8),
			FetchMaxAttempts:      getEnvAsInt("FETCH_MAX_ATTEMPTS", 5),
			FetchRetryDelay:       getEnvAsDuration("FETCH_RETRY_DELAY", "3s"),
			FetchBackoffFactor:    getEnvAsFloat("FETCH_BACKOFF_FACTOR", 2.0),
			RateLimitInterval:     getEnvAsDuration("RATE_LIMIT_INTERVAL", "600ms"),
			BenchmarkLookbackDays: getEnvAsInt("BENCHMARK_LOOKBACK_DAYS", 730),
			StaleSnapshotAfter:    getEnvAsDuration("STALE_SNAPSHOT_AFTER", "6h"),
			SnapshotCron:          getEnv("SNAPSHOT_CRON", "0 0 2 * * *"),
			Store:                 getEnv("STORE", "postgres"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	switch c.Pipeline.Store {
	case "postgres":
		// Database URL is required
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("STORE must be one of: postgres, memory")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.FetchWorkers < 1 {
		return fmt.Errorf("FETCH_WORKERS must be positive")
	}
	if c.Pipeline.FetchMaxAttempts < 1 {
		return fmt.Errorf("FETCH_MAX_ATTEMPTS must be positive")
	}
	if c.Pipeline.MaxQualified < 1 {
		return fmt.Errorf("MAX_QUALIFIED must be positive")
	}
	if c.Analytics.MinDataDays < 2 {
		return fmt.Errorf("MIN_DATA_DAYS must be at least 2")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
