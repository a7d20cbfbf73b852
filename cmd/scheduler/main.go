package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads"
	"lead_engine_backend/internal/scheduler"
	"lead_engine_backend/platform/cache"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/db"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/metrics"
	"lead_engine_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
	defer pool.Close()

	// Recomputes here publish score updates; the cache lets them invalidate
	// the dashboard summaries served by the API.
	var cacheClient *cache.Client
	if c, err := cache.NewClient(ctx, cfg); err != nil {
		log.Warn("statistics cache unavailable to scheduler", "error", err)
	} else {
		cacheClient = c
		defer func() { _ = cacheClient.Close() }()
	}

	eventBus := events.NewInMemoryBus(log)
	m := metrics.New()

	leadsModule, err := leads.NewModule(leads.Dependencies{
		Pool:      pool,
		EventBus:  eventBus,
		Validator: validator.New(),
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Cache:     cacheClient,
	})
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	lifecycleSvc := leadsModule.LifecycleService()

	// Without redis there is no queue to consume, but decay still has to run.
	var worker *scheduler.Worker
	if cfg.GetRedisURL() != "" {
		worker, err = scheduler.NewWorker(cfg, lifecycleSvc, log)
		if err != nil {
			log.Error("failed to initialize scheduler worker", "error", err)
			panic("failed to initialize scheduler worker: " + err.Error())
		}
	} else {
		log.Warn("REDIS_URL not configured; running decay sweep only")
	}

	cronManager := scheduler.NewCronManager(leadsModule.DecaySweeper(), cfg.GetDecaySweepSchedule(), log)
	if err := cronManager.SetupJobs(); err != nil {
		log.Error("failed to schedule decay sweep", "error", err)
		panic("failed to schedule decay sweep: " + err.Error())
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		cronManager.Start()
		<-gctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cronManager.Stop(stopCtx)
		return nil
	})

	_ = g.Wait()

	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := eventBus.Wait(drainCtx); err != nil {
		log.Warn("pending event handlers abandoned", "error", err)
	}
	log.Info("scheduler stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
