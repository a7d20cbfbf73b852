package scheduler

import (
	"context"
	"time"

	"lead_engine_backend/platform/logger"

	"github.com/robfig/cron/v3"
)

const sweepTimeout = 10 * time.Minute

// CronManager runs the recurring jobs of the scheduler process.
type CronManager struct {
	cron     *cron.Cron
	sweeper  *DecaySweeper
	schedule string
	log      *logger.Logger
}

func NewCronManager(sweeper *DecaySweeper, schedule string, log *logger.Logger) *CronManager {
	return &CronManager{
		// a slow sweep must not overlap the next tick
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper:  sweeper,
		schedule: schedule,
		log:      log,
	}
}

// SetupJobs registers the recency decay sweep.
func (cm *CronManager) SetupJobs() error {
	_, err := cm.cron.AddFunc(cm.schedule, cm.runDecaySweep)
	return err
}

func (cm *CronManager) runDecaySweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()

	start := time.Now()
	result, err := cm.sweeper.Sweep(ctx)
	if err != nil {
		cm.log.Error("recency decay sweep failed", "error", err, "visited", result.Visited)
		return
	}
	cm.log.Info("recency decay sweep completed",
		"visited", result.Visited,
		"refreshed", result.Refreshed,
		"unchanged", result.Unchanged,
		"failed", result.Failed,
		"durationMs", time.Since(start).Milliseconds(),
	)
}

func (cm *CronManager) Start() {
	cm.cron.Start()
	cm.log.Info("cron jobs started", "decaySweep", cm.schedule)
}

// Stop halts scheduling and waits for a running job to finish or ctx to end.
func (cm *CronManager) Stop(ctx context.Context) {
	done := cm.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
