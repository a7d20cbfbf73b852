package repository

import (
	"context"
	"time"

	"lead_engine_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadReader provides read-only access to lead data.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
}

// LeadWriter creates leads. Derived fields and status only change through the locked mutators.
type LeadWriter interface {
	CreateOrGet(ctx context.Context, params CreateLeadParams) (Lead, bool, error)
}

// LockedMutator serializes writes per lead. Implementations hold an exclusive
// lock on the lead for the duration of the callback.
type LockedMutator interface {
	RecomputeLocked(ctx context.Context, id uuid.UUID, derive DeriveFunc) (RecomputeResult, error)
	UpdateStatusLocked(ctx context.Context, id uuid.UUID, apply StatusFunc) (StatusResult, error)
}

// ActionStore is the append-only action log.
type ActionStore interface {
	AppendAction(ctx context.Context, params AppendActionParams) (Action, error)
	CountActionsByType(ctx context.Context, leadID uuid.UUID, actionType domain.ActionType) (int, error)
	ListActions(ctx context.Context, leadID uuid.UUID, limit int) ([]Action, error)
}

// StatusHistoryReader exposes the audit trail of status changes.
type StatusHistoryReader interface {
	ListStatusHistory(ctx context.Context, leadID uuid.UUID) ([]StatusChange, error)
}

// StatisticsReader provides dealer-scoped aggregates.
type StatisticsReader interface {
	SummarizeDealer(ctx context.Context, dealerID uuid.UUID) (DealerSummary, error)
}

// SweepSource provides keyset-paginated scans for background jobs.
type SweepSource interface {
	ListDecayCandidates(ctx context.Context, staleBefore time.Time, after uuid.UUID, limit int) ([]DecayCandidate, error)
	ListLeadIDs(ctx context.Context, dealerID *uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// LeadsRepository defines the complete interface for leads data operations.
type LeadsRepository interface {
	LeadReader
	LeadWriter
	LockedMutator
	ActionStore
	StatusHistoryReader
	StatisticsReader
	SweepSource
}

// Ensure both implementations satisfy LeadsRepository
var (
	_ LeadsRepository = (*Repository)(nil)
	_ LeadsRepository = (*MemoryRepository)(nil)
)
