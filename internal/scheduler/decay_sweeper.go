package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/scoring"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/metrics"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	defaultSweepBatchSize   = 200
	defaultSweepConcurrency = 4
)

// DecaySweeper refreshes leads whose recency band lapsed without new actions.
// Recency depends only on elapsed time, so a sweep may race with live
// recomputes: whichever writes last reads the full log and is correct.
type DecaySweeper struct {
	source      repository.SweepSource
	recomputer  Recomputer
	calc        *scoring.Calculator
	log         *logger.Logger
	metrics     *metrics.Metrics
	batchSize   int
	concurrency int
	now         func() time.Time
}

type SweepResult struct {
	Visited   int
	Refreshed int
	Unchanged int
	Failed    int
}

func NewDecaySweeper(source repository.SweepSource, recomputer Recomputer, calc *scoring.Calculator, log *logger.Logger) *DecaySweeper {
	return &DecaySweeper{
		source:      source,
		recomputer:  recomputer,
		calc:        calc,
		log:         log,
		batchSize:   defaultSweepBatchSize,
		concurrency: defaultSweepConcurrency,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *DecaySweeper) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

func (s *DecaySweeper) SetConcurrency(n int) {
	if n > 0 {
		s.concurrency = n
	}
}

func (s *DecaySweeper) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// Sweep pages through all decay candidates and recomputes those whose stored
// recency no longer matches the current time. Per-lead failures are counted
// and logged; only a failure to list candidates aborts the sweep.
func (s *DecaySweeper) Sweep(ctx context.Context) (SweepResult, error) {
	now := s.now()
	staleBefore := now.Add(-s.calc.FullRecencyWindow())

	var after uuid.UUID
	var visited, refreshed, unchanged, failures atomic.Int64

	for {
		batch, err := s.source.ListDecayCandidates(ctx, staleBefore, after, s.batchSize)
		if err != nil {
			return s.result(&visited, &refreshed, &unchanged, &failures), err
		}
		if len(batch) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.concurrency)
		for _, candidate := range batch {
			visited.Add(1)
			last := candidate.LastInteractionAt
			if s.calc.Recency(&last, now) == candidate.RecencyScore {
				unchanged.Add(1)
				s.metrics.SweepVisited("unchanged")
				continue
			}

			g.Go(func() error {
				if _, err := s.recomputer.RecomputeDerived(gctx, candidate.ID); err != nil {
					failures.Add(1)
					s.metrics.SweepVisited("error")
					s.log.RecomputeFailed(candidate.ID.String(), 1, err)
					return nil
				}
				refreshed.Add(1)
				s.metrics.SweepVisited("refreshed")
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return s.result(&visited, &refreshed, &unchanged, &failures), err
		}
		if len(batch) < s.batchSize {
			break
		}
		after = batch[len(batch)-1].ID
	}

	return s.result(&visited, &refreshed, &unchanged, &failures), nil
}

func (s *DecaySweeper) result(visited, refreshed, unchanged, failures *atomic.Int64) SweepResult {
	return SweepResult{
		Visited:   int(visited.Load()),
		Refreshed: int(refreshed.Load()),
		Unchanged: int(unchanged.Load()),
		Failed:    int(failures.Load()),
	}
}
