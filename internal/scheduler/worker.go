package scheduler

import (
	"context"
	"fmt"

	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/platform/apperr"
	"lead_engine_backend/platform/config"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Recomputer refreshes a lead's derived fields.
type Recomputer interface {
	RecomputeDerived(ctx context.Context, id uuid.UUID) (repository.Lead, error)
}

type Worker struct {
	server     *asynq.Server
	mux        *asynq.ServeMux
	recomputer Recomputer
	log        *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, recomputer Recomputer, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = defaultQueue
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	w := &Worker{
		mux:        asynq.NewServeMux(),
		recomputer: recomputer,
		log:        log,
	}
	w.server = asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(w.logTaskError),
	})
	w.mux.HandleFunc(TaskLeadRecompute, w.handleLeadRecompute)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleLeadRecompute recomputes one lead. A lead that no longer exists is
// not retried; any other failure is returned so asynq retries with backoff.
func (w *Worker) handleLeadRecompute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadRecomputePayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if _, err := w.recomputer.RecomputeDerived(ctx, leadID); err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			w.log.Warn("recompute skipped for missing lead", "leadId", leadID)
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		retry, _ := asynq.GetRetryCount(ctx)
		w.log.RecomputeFailed(leadID.String(), retry+1, err)
		return err
	}
	return nil
}

func (w *Worker) logTaskError(_ context.Context, task *asynq.Task, err error) {
	w.log.Error("scheduler task failed", "task", task.Type(), "error", err)
}
