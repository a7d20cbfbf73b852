package actionlog

import (
	"context"
	"time"

	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/lifecycle"
	"lead_engine_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// InteractionParams is a raw buyer interaction reported by a storefront flow.
type InteractionParams struct {
	DealerID     uuid.UUID
	VehicleID    uuid.UUID
	BuyerID      uuid.UUID
	UserFullName string
	UserEmail    string
	UserPhone    string
	ActionType   domain.ActionType
	Context      string
	OccurredAt   time.Time
}

type IngestResult struct {
	Lead    repository.Lead
	Action  repository.Action
	Created bool
}

// Ingest resolves the lead for the interaction, creating it on the first
// qualifying interaction, and records the action against it.
func (s *Service) Ingest(ctx context.Context, params InteractionParams) (IngestResult, error) {
	// Reject bad events before a lead is created for them
	occurredAt, err := s.checkEvent(params.ActionType, params.OccurredAt)
	if err != nil {
		return IngestResult{}, err
	}

	lead, created, err := s.leads.CreateOrGet(ctx, lifecycle.CreateParams{
		DealerID:     params.DealerID,
		VehicleID:    params.VehicleID,
		BuyerID:      params.BuyerID,
		UserFullName: params.UserFullName,
		UserEmail:    params.UserEmail,
		UserPhone:    params.UserPhone,
	})
	if err != nil {
		return IngestResult{}, err
	}

	action, err := s.Record(ctx, RecordParams{
		LeadID:     lead.ID,
		ActionType: params.ActionType,
		OccurredAt: occurredAt,
		Context:    params.Context,
	})
	if err != nil {
		return IngestResult{}, err
	}

	return IngestResult{Lead: lead, Action: action, Created: created}, nil
}
