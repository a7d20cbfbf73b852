package transport

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Request DTOs
// =============================================================================

type ListLeadsRequest struct {
	Page        int    `form:"page" validate:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
	Temperature string `form:"temperature" validate:"omitempty,temperature"`
	Status      string `form:"status" validate:"omitempty,leadstatus"`
	Search      string `form:"search" validate:"max=100"`
}

type CreateLeadRequest struct {
	VehicleID    uuid.UUID `json:"vehicleId" validate:"required"`
	BuyerID      uuid.UUID `json:"buyerId" validate:"required"`
	UserFullName string    `json:"userFullName" validate:"max=200"`
	UserEmail    string    `json:"userEmail" validate:"omitempty,email,max=254"`
	UserPhone    string    `json:"userPhone" validate:"max=40"`
}

// RecordInteractionRequest reports a buyer interaction for a dealer's vehicle.
// The lead is created on the first interaction.
type RecordInteractionRequest struct {
	VehicleID    uuid.UUID  `json:"vehicleId" validate:"required"`
	BuyerID      uuid.UUID  `json:"buyerId" validate:"required"`
	UserFullName string     `json:"userFullName" validate:"max=200"`
	UserEmail    string     `json:"userEmail" validate:"omitempty,email,max=254"`
	UserPhone    string     `json:"userPhone" validate:"max=40"`
	ActionType   string     `json:"actionType" validate:"required,actiontype"`
	Context      string     `json:"context" validate:"max=1000"`
	OccurredAt   *time.Time `json:"occurredAt"`
}

type RecordActionRequest struct {
	ActionType string     `json:"actionType" validate:"required,actiontype"`
	Context    string     `json:"context" validate:"max=1000"`
	OccurredAt *time.Time `json:"occurredAt"`
}

type UpdateStatusRequest struct {
	Status      string  `json:"status" validate:"required,leadstatus"`
	DealerNotes *string `json:"dealerNotes" validate:"omitempty,max=5000"`
}

type ListActionsRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=500"`
}

// =============================================================================
// Response DTOs
// =============================================================================

type ActionResponse struct {
	ID          uuid.UUID `json:"id"`
	LeadID      uuid.UUID `json:"leadId"`
	ActionType  string    `json:"actionType"`
	OccurredAt  time.Time `json:"occurredAt"`
	ScoreImpact int       `json:"scoreImpact"`
	Description string    `json:"description"`
}

type LeadResponse struct {
	ID                    uuid.UUID        `json:"id"`
	DealerID              uuid.UUID        `json:"dealerId"`
	VehicleID             uuid.UUID        `json:"vehicleId"`
	BuyerID               uuid.UUID        `json:"buyerId"`
	UserFullName          string           `json:"userFullName"`
	UserEmail             string           `json:"userEmail"`
	UserPhone             string           `json:"userPhone"`
	Score                 int              `json:"score"`
	EngagementScore       int              `json:"engagementScore"`
	RecencyScore          int              `json:"recencyScore"`
	IntentScore           int              `json:"intentScore"`
	Temperature           string           `json:"temperature"`
	ConversionProbability float64          `json:"conversionProbability"`
	Status                string           `json:"status"`
	DealerNotes           *string          `json:"dealerNotes"`
	ViewCount             int              `json:"viewCount"`
	ContactCount          int              `json:"contactCount"`
	FavoriteCount         int              `json:"favoriteCount"`
	ShareCount            int              `json:"shareCount"`
	ComparisonCount       int              `json:"comparisonCount"`
	HasScheduledTestDrive bool             `json:"hasScheduledTestDrive"`
	HasRequestedFinancing bool             `json:"hasRequestedFinancing"`
	FirstInteractionAt    *time.Time       `json:"firstInteractionAt"`
	LastInteractionAt     *time.Time       `json:"lastInteractionAt"`
	LastContactedAt       *time.Time       `json:"lastContactedAt"`
	ConvertedAt           *time.Time       `json:"convertedAt"`
	RecommendedAction     string           `json:"recommendedAction"`
	ScoreVersion          string           `json:"scoreVersion,omitempty"`
	ScoredAt              *time.Time       `json:"scoredAt,omitempty"`
	RecentActions         []ActionResponse `json:"recentActions,omitempty"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

type LeadListResponse struct {
	Leads      []LeadResponse `json:"leads"`
	TotalCount int            `json:"totalCount"`
	TotalPages int            `json:"totalPages"`
	Page       int            `json:"page"`
	PageSize   int            `json:"pageSize"`
}

type ActionListResponse struct {
	Items []ActionResponse `json:"items"`
}

type InteractionResponse struct {
	Lead    LeadResponse   `json:"lead"`
	Action  ActionResponse `json:"action"`
	Created bool           `json:"created"`
}

type StatusChangeResponse struct {
	ID        uuid.UUID `json:"id"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	Notes     *string   `json:"notes,omitempty"`
	ChangedAt time.Time `json:"changedAt"`
}

type StatusHistoryResponse struct {
	Items []StatusChangeResponse `json:"items"`
}
