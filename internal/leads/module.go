// Package leads provides the lead scoring bounded context module.
// This file defines the module that encapsulates all leads setup and route registration.
package leads

import (
	"context"
	"fmt"
	"time"

	"lead_engine_backend/internal/events"
	apphttp "lead_engine_backend/internal/http"
	"lead_engine_backend/internal/leads/actionlog"
	"lead_engine_backend/internal/leads/handler"
	"lead_engine_backend/internal/leads/lifecycle"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/scoring"
	"lead_engine_backend/internal/leads/statistics"
	"lead_engine_backend/internal/leads/transport"
	"lead_engine_backend/internal/scheduler"
	"lead_engine_backend/platform/cache"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/metrics"
	"lead_engine_backend/platform/phone"
	"lead_engine_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

const inlineRecomputeBaseDelay = 200 * time.Millisecond

// Dependencies are the shared resources the module is built from. Pool, Cache
// and Recomputes are optional: without a pool the module runs on the in-memory
// repository, and without a recompute scheduler recomputes run in-process.
type Dependencies struct {
	Pool       *pgxpool.Pool
	EventBus   events.Bus
	Validator  *validator.Validator
	Config     *config.Config
	Logger     *logger.Logger
	Metrics    *metrics.Metrics
	Cache      *cache.Client
	Recomputes scheduler.RecomputeScheduler
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler    *handler.Handler
	repo       repository.LeadsRepository
	lifecycle  *lifecycle.Service
	actions    *actionlog.Service
	stats      *statistics.Service
	recomputes scheduler.RecomputeScheduler
	cfg        *config.Config
	maxRetries int
	log        *logger.Logger
	metrics    *metrics.Metrics
}

// NewModule creates and initializes the leads module with all its dependencies.
func NewModule(deps Dependencies) (*Module, error) {
	cfg := deps.Config
	log := deps.Logger

	scoringCfg, err := scoring.LoadConfig(cfg.GetScoringConfigPath())
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}
	calc := scoring.NewCalculator(scoringCfg)

	if err := transport.RegisterValidations(deps.Validator); err != nil {
		return nil, fmt.Errorf("register lead validations: %w", err)
	}

	var repo repository.LeadsRepository
	if deps.Pool != nil {
		repo = repository.New(deps.Pool)
	} else {
		log.Warn("no database pool configured, using in-memory lead repository")
		repo = repository.NewMemory()
	}

	// Create focused services (vertical slices)
	lifecycleSvc := lifecycle.New(repo, calc, deps.EventBus, log)
	lifecycleSvc.SetMetrics(deps.Metrics)
	lifecycleSvc.SetPhoneNormalizer(phone.NewNormalizer(cfg.GetPhoneDefaultRegion()))
	lifecycleSvc.SetRecentActionsLimit(cfg.GetRecentActionsLimit())

	actionSvc := actionlog.New(repo, lifecycleSvc, calc, deps.EventBus, log)
	actionSvc.SetMetrics(deps.Metrics)

	statsSvc := statistics.New(repo, log)
	statsSvc.SetMetrics(deps.Metrics)
	if deps.Cache != nil {
		statsSvc.SetCache(deps.Cache, cfg.GetStatsCacheTTL())
	}

	m := &Module{
		handler:    handler.New(lifecycleSvc, actionSvc, statsSvc, deps.Validator),
		repo:       repo,
		lifecycle:  lifecycleSvc,
		actions:    actionSvc,
		stats:      statsSvc,
		recomputes: deps.Recomputes,
		cfg:        cfg,
		maxRetries: cfg.GetRecomputeMaxRetries(),
		log:        log,
		metrics:    deps.Metrics,
	}

	// Dashboard summaries go stale whenever a lead is created, rescored or moved.
	invalidate := statsSvc.InvalidationHandler()
	deps.EventBus.Subscribe(events.LeadCreated{}.EventName(), invalidate)
	deps.EventBus.Subscribe(events.LeadScoreUpdated{}.EventName(), invalidate)
	deps.EventBus.Subscribe(events.LeadStatusChanged{}.EventName(), invalidate)

	deps.EventBus.Subscribe(events.LeadActionRecorded{}.EventName(), events.HandlerFunc(m.dispatchRecompute))

	return m, nil
}

// dispatchRecompute hands a recorded action to the background worker, or
// recomputes in-process when no worker queue is configured or reachable.
// The action itself is already committed, so failures here are only logged.
func (m *Module) dispatchRecompute(ctx context.Context, event events.Event) error {
	e, ok := event.(events.LeadActionRecorded)
	if !ok {
		return nil
	}

	if m.recomputes != nil {
		err := m.recomputes.EnqueueLeadRecompute(ctx, e.LeadID)
		if err == nil {
			m.metrics.RecomputeEnqueued("queued")
			return nil
		}
		m.metrics.RecomputeEnqueued("enqueue_error")
		m.log.WithContext(ctx).Warn("recompute enqueue failed, recomputing inline", "error", err, "leadId", e.LeadID)
	}

	m.metrics.RecomputeEnqueued("inline")
	attempts := m.maxRetries + 1
	if err := m.lifecycle.RecomputeWithRetry(context.WithoutCancel(ctx), e.LeadID, attempts, inlineRecomputeBaseDelay); err != nil {
		m.log.WithContext(ctx).Error("inline recompute failed", "error", err, "leadId", e.LeadID)
	}
	return nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// LifecycleService returns the lead lifecycle service for external use.
func (m *Module) LifecycleService() *lifecycle.Service {
	return m.lifecycle
}

// DecaySweeper builds the recency decay sweep over the module's repository.
// Processes without a recompute queue run it themselves.
func (m *Module) DecaySweeper() *scheduler.DecaySweeper {
	sweeper := scheduler.NewDecaySweeper(m.repo, m.lifecycle, m.lifecycle.Calculator(), m.log)
	sweeper.SetBatchSize(m.cfg.GetDecaySweepBatchSize())
	sweeper.SetConcurrency(m.cfg.GetDecaySweepConcurrency())
	sweeper.SetMetrics(m.metrics)
	return sweeper
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterDealerRoutes(ctx.Dealer)
	m.handler.RegisterLeadRoutes(ctx.V1.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
