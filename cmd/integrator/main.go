package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	integrationapp "github.com/symmy/integrator/internal/application/integration"
	"github.com/symmy/integrator/internal/domain/integration"
	"github.com/symmy/integrator/internal/infrastructure/config"
	"github.com/symmy/integrator/internal/infrastructure/eshop"
	"github.com/symmy/integrator/internal/infrastructure/logger"
	"github.com/symmy/integrator/internal/infrastructure/persistence"
	"github.com/symmy/integrator/internal/infrastructure/runlock"
	"github.com/symmy/integrator/internal/infrastructure/scheduler"
	"github.com/symmy/integrator/internal/infrastructure/source"
)

func main() {
	var once bool
	flag.BoolVar(&once, "once", false, "Run a single sync and exit instead of starting the scheduler")
	flag.Parse()

	// Optional .env for local development; real deployments use the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting e-shop integrator",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("source", cfg.Source.Type),
	)

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	stateStore := persistence.NewGormSyncStateRepository(db.DB)

	erpSource, err := buildSource(&cfg.Source)
	if err != nil {
		log.Fatal("Failed to build ERP source", zap.Error(err))
	}

	client, err := eshop.NewClient(&eshop.Config{
		BaseURL:    cfg.Eshop.BaseURL,
		APIKey:     cfg.Eshop.APIKey,
		MaxRetries: cfg.Eshop.MaxRetries,
		BaseDelay:  cfg.Eshop.BaseDelay,
		Timeout:    cfg.Eshop.Timeout,
	}, log)
	if err != nil {
		log.Fatal("Failed to create e-shop client", zap.Error(err))
	}

	orchestrator := integrationapp.NewOrchestrator(
		erpSource,
		client,
		stateStore,
		integrationapp.Config{RateLimit: cfg.Eshop.RateLimit},
		log,
	)

	if once {
		runOnce(orchestrator, log)
		return
	}

	runScheduler(cfg, orchestrator, log)
}

// runOnce executes a single sync run, for manual triggers and cron-style
// deployments.
func runOnce(orchestrator *integrationapp.Orchestrator, log *zap.Logger) {
	stats, err := orchestrator.Run(context.Background())
	if err != nil {
		log.Fatal("Sync run failed", zap.Error(err))
	}
	log.Info("Sync run finished",
		zap.String("run_id", stats.RunID.String()),
		zap.Int("synced", stats.Synced),
		zap.Int("skipped_unchanged", stats.SkippedUnchanged),
		zap.Int("skipped_invalid", stats.SkippedInvalid),
		zap.Int("errors", stats.Errors),
	)
}

// runScheduler starts the periodic trigger and blocks until SIGINT/SIGTERM.
func runScheduler(cfg *config.Config, orchestrator *integrationapp.Orchestrator, log *zap.Logger) {
	lock, err := buildRunLock(cfg, log)
	if err != nil {
		log.Fatal("Failed to build run lock", zap.Error(err))
	}

	sched := scheduler.NewSyncScheduler(scheduler.Config{
		Interval:      cfg.Scheduler.Interval,
		RetryAttempts: cfg.Scheduler.RetryAttempts,
		RetryDelay:    cfg.Scheduler.RetryDelay,
	}, orchestrator, lock, log)

	if err := sched.Start(context.Background()); err != nil {
		log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Stop(ctx); err != nil {
		log.Error("Scheduler shutdown failed", zap.Error(err))
	}
}

// buildSource selects the ERP source configured at startup.
func buildSource(cfg *config.SourceConfig) (integration.Source, error) {
	switch cfg.Type {
	case "json":
		return source.NewJSONFileSource(cfg.Path), nil
	case "csv":
		return source.NewCSVFileSource(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// buildRunLock picks a distributed lock when Redis is configured, otherwise
// a process-local one.
func buildRunLock(cfg *config.Config, log *zap.Logger) (runlock.RunLock, error) {
	if !cfg.Redis.Enabled {
		return runlock.NewInMemoryRunLock(), nil
	}
	log.Info("Using Redis run lock",
		zap.String("host", cfg.Redis.Host),
		zap.Int("port", cfg.Redis.Port),
	)
	return runlock.NewRedisRunLock(runlock.RedisConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Scheduler.LockTTL)
}
