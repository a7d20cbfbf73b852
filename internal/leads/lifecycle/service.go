// Package lifecycle owns the Lead record: creation, reads, the status state
// machine and the persisted derived scores. It is the only package that
// mutates lead rows.
package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/scoring"
	"lead_engine_backend/platform/apperr"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/metrics"
	"lead_engine_backend/platform/phone"
	"lead_engine_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultRecentActions = 20
	defaultPageSize      = 20
	maxPageSize          = 100
	maxNotesLength       = 5000
	maxNameLength        = 200
)

// Repository is the subset of the leads store the lifecycle manager needs.
type Repository interface {
	repository.LeadReader
	repository.LeadWriter
	repository.LockedMutator
	repository.ActionStore
	repository.StatusHistoryReader
}

// Service is the Lead Lifecycle Manager.
type Service struct {
	repo          Repository
	calc          *scoring.Calculator
	eventBus      events.Bus
	log           *logger.Logger
	metrics       *metrics.Metrics
	phone         *phone.Normalizer
	recentActions int
	now           func() time.Time
}

// New creates a lifecycle service.
func New(repo Repository, calc *scoring.Calculator, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:          repo,
		calc:          calc,
		eventBus:      eventBus,
		log:           log,
		phone:         phone.NewNormalizer(""),
		recentActions: defaultRecentActions,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

func (s *Service) SetPhoneNormalizer(n *phone.Normalizer) {
	s.phone = n
}

// SetRecentActionsLimit bounds the recentActions projection on lead detail.
func (s *Service) SetRecentActionsLimit(limit int) {
	if limit > 0 {
		s.recentActions = limit
	}
}

// Calculator exposes the scorer used for derived fields.
func (s *Service) Calculator() *scoring.Calculator {
	return s.calc
}

// CreateParams identifies a buyer-vehicle relationship for one dealer.
type CreateParams struct {
	DealerID     uuid.UUID
	VehicleID    uuid.UUID
	BuyerID      uuid.UUID
	UserFullName string
	UserEmail    string
	UserPhone    string
}

// LeadView is a lead together with the engine's advisory fields.
type LeadView struct {
	Lead              repository.Lead
	RecommendedAction string
	RecentActions     []repository.Action
}

// CreateOrGet returns the lead for the triple, creating it on first contact.
// The second return value reports whether a new lead was created.
func (s *Service) CreateOrGet(ctx context.Context, params CreateParams) (repository.Lead, bool, error) {
	if params.DealerID == uuid.Nil || params.VehicleID == uuid.Nil || params.BuyerID == uuid.Nil {
		return repository.Lead{}, false, apperr.Validation("dealerId, vehicleId and buyerId are required")
	}

	lead, created, err := s.repo.CreateOrGet(ctx, repository.CreateLeadParams{
		DealerID:     params.DealerID,
		VehicleID:    params.VehicleID,
		BuyerID:      params.BuyerID,
		UserFullName: sanitize.Truncate(params.UserFullName, maxNameLength),
		UserEmail:    strings.ToLower(strings.TrimSpace(params.UserEmail)),
		UserPhone:    s.phone.NormalizeE164(params.UserPhone),
	})
	if err != nil {
		return repository.Lead{}, false, err
	}

	if created {
		s.eventBus.Publish(ctx, events.LeadCreated{
			BaseEvent: events.NewBaseEventAt(lead.CreatedAt),
			LeadID:    lead.ID,
			DealerID:  lead.DealerID,
			VehicleID: lead.VehicleID,
			BuyerID:   lead.BuyerID,
		})
	}
	return lead, created, nil
}

// Get returns the full lead with recent actions and a recommendation.
// If the stored recency band has lapsed, the lead is recomputed first so the
// detail view never shows an outdated score.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (LeadView, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LeadView{}, apperr.NotFound("lead not found")
		}
		return LeadView{}, err
	}

	if s.calc.Recency(lead.LastInteractionAt, s.now()) != lead.RecencyScore {
		refreshed, err := s.RecomputeDerived(ctx, id)
		if err != nil {
			s.log.WithContext(ctx).Warn("read-time recency refresh failed", "leadId", id, "error", err)
		} else {
			lead = refreshed
		}
	}

	return s.detail(ctx, lead)
}

func (s *Service) detail(ctx context.Context, lead repository.Lead) (LeadView, error) {
	actions, err := s.repo.ListActions(ctx, lead.ID, s.recentActions)
	if err != nil {
		return LeadView{}, err
	}
	return LeadView{
		Lead:              lead,
		RecommendedAction: scoring.Recommend(lead, s.now()),
		RecentActions:     actions,
	}, nil
}

// ListParams filters and pages a dealer's leads. Page is 1-based.
type ListParams struct {
	DealerID    uuid.UUID
	Page        int
	PageSize    int
	Temperature *domain.Temperature
	Status      *domain.LeadStatus
	Search      string
}

type ListResult struct {
	Leads      []LeadView
	TotalCount int
	TotalPages int
	Page       int
	PageSize   int
}

// List returns a page of leads ordered by score, highest first.
func (s *Service) List(ctx context.Context, params ListParams) (ListResult, error) {
	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageSize = min(pageSize, maxPageSize)

	leads, total, err := s.repo.List(ctx, repository.ListParams{
		DealerID:    params.DealerID,
		Temperature: params.Temperature,
		Status:      params.Status,
		Search:      params.Search,
		Offset:      (page - 1) * pageSize,
		Limit:       pageSize,
	})
	if err != nil {
		return ListResult{}, err
	}

	now := s.now()
	views := make([]LeadView, 0, len(leads))
	for _, lead := range leads {
		views = append(views, LeadView{Lead: lead, RecommendedAction: scoring.Recommend(lead, now)})
	}

	totalPages := (total + pageSize - 1) / pageSize
	return ListResult{
		Leads:      views,
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

// StatusHistory returns the audit trail of a lead's status changes, newest first.
func (s *Service) StatusHistory(ctx context.Context, id uuid.UUID) ([]repository.StatusChange, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("lead not found")
		}
		return nil, err
	}
	return s.repo.ListStatusHistory(ctx, id)
}
