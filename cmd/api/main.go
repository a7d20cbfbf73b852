package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_engine_backend/internal/events"
	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/internal/http/router"
	"lead_engine_backend/internal/leads"
	"lead_engine_backend/internal/scheduler"
	"lead_engine_backend/platform/cache"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/db"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/metrics"
	"lead_engine_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	health := map[string]apphttp.HealthChecker{}

	pool := connectDatabase(ctx, cfg, log)
	if pool != nil {
		defer pool.Close()
		health["database"] = db.NewPoolAdapter(pool)
	}

	cacheClient := initCache(ctx, cfg, log)
	if cacheClient != nil {
		defer func() { _ = cacheClient.Close() }()
		health["redis"] = cacheClient
	}

	recomputes, closeScheduler := initRecomputeScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)
	m := metrics.New()

	// Shared validator instance for dependency injection
	val := validator.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	deps := leads.Dependencies{
		Pool:      pool,
		EventBus:  eventBus,
		Validator: val,
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Cache:     cacheClient,
	}
	if recomputes != nil {
		deps.Recomputes = recomputes
	}
	leadsModule, err := leads.NewModule(deps)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}

	// Without a worker queue no scheduler process owns the decay sweep.
	if recomputes == nil {
		cronManager := scheduler.NewCronManager(leadsModule.DecaySweeper(), cfg.GetDecaySweepSchedule(), log)
		if err := cronManager.SetupJobs(); err != nil {
			log.Error("failed to schedule decay sweep", "error", err)
			panic("failed to schedule decay sweep: " + err.Error())
		}
		cronManager.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			cronManager.Stop(stopCtx)
		}()
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Metrics:  m,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			leadsModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "error", err)
		}
		if err := eventBus.Wait(shutdownCtx); err != nil {
			log.Warn("pending event handlers abandoned", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// connectDatabase returns nil in development when DATABASE_URL is unset so
// the API can run on the in-memory repository.
func connectDatabase(ctx context.Context, cfg *config.Config, log *logger.Logger) *pgxpool.Pool {
	if cfg.GetDatabaseURL() == "" {
		log.Warn("DATABASE_URL not configured; leads are kept in memory")
		return nil
	}

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	log.Info("database connection established")

	if cfg.GetMigrationsEnabled() {
		var applied int
		if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
			n, err := db.RunMigrations(ctx, pool)
			applied = n
			return err
		}); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete", "applied", applied)
	}

	return pool
}

func initCache(ctx context.Context, cfg *config.Config, log *logger.Logger) *cache.Client {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; statistics are computed on every request")
		return nil
	}

	client, err := cache.NewClient(ctx, cfg)
	if err != nil {
		log.Error("failed to initialize cache, continuing without it", "error", err)
		return nil
	}
	return client
}

func initRecomputeScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; lead recomputes run in-process")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize recompute scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
