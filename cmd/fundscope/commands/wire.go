package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/fundscope/internal/contracts"
	"github.com/wonny/fundscope/internal/external/eastmoney"
	"github.com/wonny/fundscope/internal/filterconfig"
	"github.com/wonny/fundscope/internal/metrics"
	"github.com/wonny/fundscope/internal/provider"
	"github.com/wonny/fundscope/internal/scoring"
	"github.com/wonny/fundscope/internal/snapshot"
	"github.com/wonny/fundscope/internal/store"
	"github.com/wonny/fundscope/internal/store/postgres"
	"github.com/wonny/fundscope/pkg/config"
	"github.com/wonny/fundscope/pkg/database"
	"github.com/wonny/fundscope/pkg/httputil"
	"github.com/wonny/fundscope/pkg/logger"
	"github.com/wonny/fundscope/pkg/redis"
)

// eastmoneyRequestsPerMinute shared budget across processes when redis is on
const eastmoneyRequestsPerMinute = 90

// app every long-lived component a command needs
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	db     *database.DB // nil with STORE=memory
	rdb    *redis.Client
	pg     *postgres.Store
	store  contracts.SnapshotStore
	logs   contracts.BuildLogStore
	source contracts.MarketDataProvider
	engine *metrics.Engine
	orch   *snapshot.Orchestrator
}

// newApp wires config → logger → store → provider chain → orchestrator
func newApp(cfg *config.Config) (*app, error) {
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	// 1. Store
	switch cfg.Pipeline.Store {
	case "memory":
		mem := store.NewMemory()
		a.store, a.logs = mem, mem
		log.Warn("Using in-memory store: snapshots are lost on exit")
	default:
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.db = db
		a.pg = postgres.New(db.Pool)
		a.store, a.logs = a.pg, a.pg
		log.Info("Connected to database")
	}

	// 2. Redis (optional)
	rdb, err := redis.New(cfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	a.rdb = rdb

	// 3. Provider chain: eastmoney → cache → retry/rate gate
	httpClient := httputil.New(log, cfg.Eastmoney.Timeout)
	if rdb.Enabled() {
		httpClient.WithRateLimiter(redis.NewRateLimiter(rdb, "fundscope:ratelimit"), redis.RateLimitConfig{
			Key:    "eastmoney",
			Limit:  eastmoneyRequestsPerMinute,
			Window: time.Minute,
		})
	}
	em := eastmoney.NewClient(httpClient, cfg.Eastmoney, log)
	if cfg.Eastmoney.FilterFile != "" {
		rules, _, err := filterconfig.Load(cfg.Eastmoney.FilterFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		hash, _ := filterconfig.Hash(rules)
		log.WithFields(map[string]interface{}{
			"file": cfg.Eastmoney.FilterFile,
			"hash": hash,
		}).Info("Loaded candidate filter rules")
		em.WithRules(rules)
	}
	cached := provider.NewCached(em, redis.NewCache(rdb, "fundscope"), log)
	a.source = provider.NewResilient(cached, provider.RetryPolicy{
		MaxAttempts:   cfg.Pipeline.FetchMaxAttempts,
		InitialDelay:  cfg.Pipeline.FetchRetryDelay,
		BackoffFactor: cfg.Pipeline.FetchBackoffFactor,
		MaxDelay:      time.Minute,
	}, cfg.Pipeline.RateLimitInterval, log)

	// 4. Engine + orchestrator
	a.engine = metrics.NewEngine(metrics.Config{
		RiskFreeRate: cfg.Analytics.RiskFreeRate,
		MinDataDays:  cfg.Analytics.MinDataDays,
	})
	a.orch = snapshot.New(
		a.source,
		a.engine,
		scoring.NewRubric(log),
		a.store,
		a.logs,
		snapshot.ConfigFrom(cfg),
		log,
	)

	return a, nil
}

// startupSweep fails snapshots left running by a crashed process
func (a *app) startupSweep(ctx context.Context) {
	n, err := a.orch.Sweep(ctx, a.cfg.Pipeline.StaleSnapshotAfter)
	if err != nil {
		a.log.WithError(err).Warn("Startup stale sweep failed")
		return
	}
	if n > 0 {
		a.log.WithField("count", n).Info("Startup stale sweep failed running snapshots")
	}
}

// Close releases pooled connections
func (a *app) Close() {
	if a.rdb != nil {
		a.rdb.Close()
	}
	if a.db != nil {
		a.db.Close()
	}
}
