package main

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/cache"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/config"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/metrics"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policy"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/store"
)

// app bundles the collaborators every database-backed command needs.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *gorm.DB
	policies store.PolicyRepo
	outcomes store.EnforcementLogRepo
	service  *policy.Service
	metrics  *metrics.Collector
	close    func()
}

// openDB is replaced in tests to observe the connection lifecycle.
var openDB = store.Open

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, codeError(exitInput, "loading config: %s", err)
	}
	return cfg, nil
}

// openApp connects to the database (and Redis when enabled) and builds the
// policy service. Connection failures map to exit code 4.
func openApp(ctx context.Context, cfg *config.Config, col *metrics.Collector) (*app, error) {
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, codeError(exitInput, "initialising logger: %s", err)
	}

	db, err := openDB(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, codeError(exitStore, "connecting to database: %s", err)
	}
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(db); err != nil {
			closeDB(db)
			return nil, codeError(exitStore, "migrating database: %s", err)
		}
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		policies: store.NewPolicyRepo(db, log),
		outcomes: store.NewEnforcementLogRepo(db, log),
		metrics:  col,
	}
	closers := []func(){}

	var policyStore policy.Store = a.policies
	if cfg.Redis.Enabled {
		dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		rdb, err := cache.NewClient(dialCtx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		cancel()
		if err != nil {
			closeDB(db)
			return nil, codeError(exitStore, "connecting to redis: %s", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		var rec cache.Recorder
		if col != nil {
			rec = col
		}
		policyStore = cache.NewPolicyStore(a.policies, rdb, cfg.Redis.PolicyTTL, log, rec)
	}

	opts := []policy.Option{policy.WithWindowDays(cfg.Analytics.WindowDays)}
	if col != nil {
		opts = append(opts, policy.WithRecorder(col))
	}
	a.service = policy.NewService(policyStore, a.outcomes, log, opts...)

	a.close = func() {
		for _, c := range closers {
			c()
		}
		closeDB(db)
		log.Sync()
	}
	return a, nil
}
