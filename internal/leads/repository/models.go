package repository

import (
	"errors"
	"time"

	"lead_engine_backend/internal/leads/domain"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("lead not found")

// Lead is the persisted aggregate for one (dealer, vehicle, buyer) relationship.
type Lead struct {
	ID                    uuid.UUID
	DealerID              uuid.UUID
	VehicleID             uuid.UUID
	BuyerID               uuid.UUID
	UserFullName          string
	UserEmail             string
	UserPhone             string
	Score                 int
	EngagementScore       int
	RecencyScore          int
	IntentScore           int
	Temperature           domain.Temperature
	ConversionProbability float64
	Status                domain.LeadStatus
	DealerNotes           *string
	ViewCount             int
	ContactCount          int
	FavoriteCount         int
	ShareCount            int
	ComparisonCount       int
	HasScheduledTestDrive bool
	HasRequestedFinancing bool
	FirstInteractionAt    *time.Time
	LastInteractionAt     *time.Time
	LastContactedAt       *time.Time
	ConvertedAt           *time.Time
	ScoreVersion          string
	ScoredAt              *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Action is one immutable entry of the action log.
type Action struct {
	ID          uuid.UUID
	LeadID      uuid.UUID
	ActionType  domain.ActionType
	OccurredAt  time.Time
	ScoreImpact int
	Description string
	CreatedAt   time.Time
}

// ActionTally summarizes all log entries of one type for a lead.
type ActionTally struct {
	ActionType domain.ActionType
	Count      int
	FirstAt    time.Time
	LastAt     time.Time
}

// StatusChange is one row of the status audit trail.
type StatusChange struct {
	ID        uuid.UUID
	LeadID    uuid.UUID
	OldStatus domain.LeadStatus
	NewStatus domain.LeadStatus
	Notes     *string
	ChangedAt time.Time
}

type CreateLeadParams struct {
	DealerID     uuid.UUID
	VehicleID    uuid.UUID
	BuyerID      uuid.UUID
	UserFullName string
	UserEmail    string
	UserPhone    string
}

type AppendActionParams struct {
	LeadID      uuid.UUID
	ActionType  domain.ActionType
	OccurredAt  time.Time
	ScoreImpact int
	Description string
}

type ListParams struct {
	DealerID    uuid.UUID
	Temperature *domain.Temperature
	Status      *domain.LeadStatus
	Search      string
	Offset      int
	Limit       int
}

// DerivedFields are the engine-owned columns refreshed on every recompute.
type DerivedFields struct {
	Score                 int
	EngagementScore       int
	RecencyScore          int
	IntentScore           int
	Temperature           domain.Temperature
	ConversionProbability float64
	ViewCount             int
	ContactCount          int
	FavoriteCount         int
	ShareCount            int
	ComparisonCount       int
	HasScheduledTestDrive bool
	HasRequestedFinancing bool
	FirstInteractionAt    *time.Time
	LastInteractionAt     *time.Time
	ScoreVersion          string
	ScoredAt              time.Time
}

// DeriveFunc computes derived fields from the locked lead and its action tallies.
type DeriveFunc func(lead Lead, tallies []ActionTally) (DerivedFields, error)

// StatusUpdate describes the write produced by a status request.
// Nil pointers leave the stored value untouched.
type StatusUpdate struct {
	Status                domain.LeadStatus
	Changed               bool
	DealerNotes           *string
	LastContactedAt       *time.Time
	ConvertedAt           *time.Time
	ConversionProbability float64
	ChangedAt             time.Time
}

// StatusFunc validates a status request against the locked lead.
type StatusFunc func(lead Lead) (StatusUpdate, error)

type RecomputeResult struct {
	Before Lead
	After  Lead
}

type StatusResult struct {
	Before Lead
	After  Lead
	Change *StatusChange
}

// DealerSummary is a single-snapshot aggregate over a dealer's leads.
type DealerSummary struct {
	TotalLeads     int
	HotLeads       int
	WarmLeads      int
	ColdLeads      int
	ConvertedLeads int
	LostLeads      int
	AverageScore   float64
	StatusCounts   map[domain.LeadStatus]int
}

// DecayCandidate is a lead whose recency band may have lapsed.
type DecayCandidate struct {
	ID                uuid.UUID
	LastInteractionAt time.Time
	RecencyScore      int
}
