package lifecycle

import (
	"context"
	"errors"
	"time"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/platform/apperr"

	"github.com/google/uuid"
)

// RecomputeDerived re-runs scoring for a lead from its full action log and
// persists the result under the lead's write lock.
func (s *Service) RecomputeDerived(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	start := time.Now()
	result, err := s.repo.RecomputeLocked(ctx, id, func(lead repository.Lead, tallies []repository.ActionTally) (repository.DerivedFields, error) {
		return s.calc.Derive(lead, tallies, s.now()), nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecomputeFinished("not_found", time.Since(start))
			return repository.Lead{}, apperr.NotFound("lead not found")
		}
		s.metrics.RecomputeFinished("error", time.Since(start))
		return repository.Lead{}, err
	}
	s.metrics.RecomputeFinished("ok", time.Since(start))

	before, after := result.Before, result.After
	if before.Temperature != after.Temperature {
		s.metrics.TemperatureChanged(string(before.Temperature), string(after.Temperature))
		s.log.WithContext(ctx).TemperatureChanged(id.String(), string(before.Temperature), string(after.Temperature), after.Score)
	}
	if before.Score != after.Score || before.Temperature != after.Temperature {
		s.eventBus.Publish(ctx, events.LeadScoreUpdated{
			BaseEvent:           events.NewBaseEvent(),
			LeadID:              id,
			DealerID:            after.DealerID,
			PreviousScore:       before.Score,
			Score:               after.Score,
			PreviousTemperature: string(before.Temperature),
			Temperature:         string(after.Temperature),
		})
	}

	return after, nil
}

// RecomputeWithRetry retries RecomputeDerived on infrastructure failures with
// exponential backoff starting at baseDelay. Typed errors such as NotFound are
// returned immediately. Once attempts are exhausted the last failure is
// surfaced as TRANSIENT_STORAGE_FAILURE.
func (s *Service) RecomputeWithRetry(ctx context.Context, id uuid.UUID, attempts int, baseDelay time.Duration) error {
	attempts = max(attempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		_, err := s.RecomputeDerived(ctx, id)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		lastErr = err
		s.log.WithContext(ctx).RecomputeFailed(id.String(), attempt, err)

		if attempt == attempts {
			break
		}
		delay := baseDelay * time.Duration(1<<(attempt-1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return apperr.Unavailable("lead recompute failed after retries", lastErr).WithOp("lifecycle.RecomputeWithRetry")
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	_, typed := apperr.As(err)
	return !typed
}
