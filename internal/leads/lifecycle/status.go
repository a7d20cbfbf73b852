package lifecycle

import (
	"context"
	"errors"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/scoring"
	"lead_engine_backend/platform/apperr"
	"lead_engine_backend/platform/sanitize"

	"github.com/google/uuid"
)

// InvalidTransitionDetails is attached to INVALID_TRANSITION errors so callers
// can correct the request.
type InvalidTransitionDetails struct {
	CurrentStatus   string   `json:"currentStatus"`
	RequestedStatus string   `json:"requestedStatus"`
	AllowedStatuses []string `json:"allowedStatuses"`
}

func invalidTransition(current, requested domain.LeadStatus) error {
	return apperr.Conflict("status transition not allowed").
		WithCode(apperr.CodeInvalidTransition).
		WithDetails(InvalidTransitionDetails{
			CurrentStatus:   string(current),
			RequestedStatus: string(requested),
			AllowedStatuses: domain.StatusStrings(current.AllowedNext()),
		})
}

// UpdateStatus moves a lead through the state machine and applies dealer notes.
// Requesting the current status is a no-op for status and timestamps, but
// notes are still stored. lastContactedAt is stamped on entering Contacted and
// convertedAt exactly once, on the first entry into Converted.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.LeadStatus, notes *string) (LeadView, error) {
	if !status.IsValid() {
		return LeadView{}, apperr.Validation("unknown status")
	}
	if notes != nil {
		cleaned := sanitize.Truncate(*notes, maxNotesLength)
		notes = &cleaned
	}

	result, err := s.repo.UpdateStatusLocked(ctx, id, func(lead repository.Lead) (repository.StatusUpdate, error) {
		if !lead.Status.CanTransitionTo(status) {
			return repository.StatusUpdate{}, invalidTransition(lead.Status, status)
		}

		now := s.now()
		update := repository.StatusUpdate{
			Status:                status,
			Changed:               lead.Status != status,
			DealerNotes:           notes,
			ConversionProbability: scoring.Estimate(lead.Score, lead.Temperature, status),
			ChangedAt:             now,
		}
		if update.Changed && status == domain.StatusContacted {
			update.LastContactedAt = &now
		}
		if update.Changed && status == domain.StatusConverted && lead.ConvertedAt == nil {
			update.ConvertedAt = &now
		}
		return update, nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LeadView{}, apperr.NotFound("lead not found")
		}
		return LeadView{}, err
	}

	if change := result.Change; change != nil {
		s.metrics.StatusChanged(string(change.NewStatus))
		s.log.WithContext(ctx).Info("lead status changed",
			"leadId", id,
			"from", change.OldStatus,
			"to", change.NewStatus,
		)
		s.eventBus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEventAt(change.ChangedAt),
			LeadID:    id,
			DealerID:  result.After.DealerID,
			OldStatus: string(change.OldStatus),
			NewStatus: string(change.NewStatus),
		})
	}

	return s.detail(ctx, result.After)
}
