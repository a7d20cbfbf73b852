// Package actionlog is the append-only record of buyer interactions.
// Appends never touch derived lead fields; they publish LeadActionRecorded
// and the recompute runs separately.
package actionlog

import (
	"context"
	"errors"
	"time"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/lifecycle"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/scoring"
	"lead_engine_backend/platform/apperr"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/metrics"
	"lead_engine_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	maxDescriptionLength = 1000
	defaultListLimit     = 50
	maxListLimit         = 500
	// Client clocks drift; anything further ahead than this is rejected.
	maxClockSkew = 5 * time.Minute
)

// Repository is the data access the action log needs.
type Repository interface {
	repository.ActionStore
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
}

// LeadResolver finds or creates the lead an interaction belongs to.
type LeadResolver interface {
	CreateOrGet(ctx context.Context, params lifecycle.CreateParams) (repository.Lead, bool, error)
}

type Service struct {
	repo     Repository
	leads    LeadResolver
	calc     *scoring.Calculator
	eventBus events.Bus
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func New(repo Repository, leads LeadResolver, calc *scoring.Calculator, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		leads:    leads,
		calc:     calc,
		eventBus: eventBus,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// RecordParams describes one interaction. A zero OccurredAt means now.
type RecordParams struct {
	LeadID     uuid.UUID
	ActionType domain.ActionType
	OccurredAt time.Time
	Context    string
}

// Record appends an action to the log. A missing lead is rejected with
// INVALID_LEAD_REFERENCE so the event is never dropped silently.
func (s *Service) Record(ctx context.Context, params RecordParams) (repository.Action, error) {
	occurredAt, err := s.checkEvent(params.ActionType, params.OccurredAt)
	if err != nil {
		return repository.Action{}, err
	}

	lead, err := s.repo.GetByID(ctx, params.LeadID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Action{}, invalidLeadReference()
		}
		return repository.Action{}, err
	}

	prior, err := s.repo.CountActionsByType(ctx, lead.ID, params.ActionType)
	if err != nil {
		return repository.Action{}, err
	}

	action, err := s.repo.AppendAction(ctx, repository.AppendActionParams{
		LeadID:      lead.ID,
		ActionType:  params.ActionType,
		OccurredAt:  occurredAt.UTC(),
		ScoreImpact: s.calc.Impact(params.ActionType, prior),
		Description: sanitize.Truncate(params.Context, maxDescriptionLength),
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Action{}, invalidLeadReference()
		}
		return repository.Action{}, err
	}

	s.metrics.ActionRecorded(string(action.ActionType))
	s.eventBus.Publish(ctx, events.LeadActionRecorded{
		BaseEvent:      events.NewBaseEventAt(action.CreatedAt),
		LeadID:         lead.ID,
		DealerID:       lead.DealerID,
		ActionID:       action.ID,
		ActionType:     string(action.ActionType),
		ActionOccurred: action.OccurredAt,
	})

	return action, nil
}

// checkEvent validates an interaction independently of its lead and returns
// the effective occurrence time. A zero occurredAt means now.
func (s *Service) checkEvent(actionType domain.ActionType, occurredAt time.Time) (time.Time, error) {
	if !actionType.IsValid() {
		return time.Time{}, apperr.Validation("unknown action type")
	}

	now := s.now()
	if occurredAt.IsZero() {
		return now, nil
	}
	if occurredAt.After(now.Add(maxClockSkew)) {
		return time.Time{}, apperr.Validation("occurredAt is in the future")
	}
	return occurredAt, nil
}

func invalidLeadReference() error {
	return apperr.Unprocessable("action references an unknown lead").WithCode(apperr.CodeInvalidLeadReference)
}

// List returns the most recent actions of a lead, newest first.
func (s *Service) List(ctx context.Context, leadID uuid.UUID, limit int) ([]repository.Action, error) {
	if _, err := s.repo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}

	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.repo.ListActions(ctx, leadID, min(limit, maxListLimit))
}
