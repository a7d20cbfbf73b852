// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"lead_engine_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewBaseEventAt = events.NewBaseEventAt
)

// =============================================================================
// Leads Domain Events
// =============================================================================

// LeadCreated is published when a new (dealer, vehicle, buyer) lead is created.
type LeadCreated struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	DealerID  uuid.UUID `json:"dealerId"`
	VehicleID uuid.UUID `json:"vehicleId"`
	BuyerID   uuid.UUID `json:"buyerId"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadActionRecorded is published after an action has been appended to the log.
// Subscribers use it to schedule the derived-score recompute.
type LeadActionRecorded struct {
	BaseEvent
	LeadID         uuid.UUID `json:"leadId"`
	DealerID       uuid.UUID `json:"dealerId"`
	ActionID       uuid.UUID `json:"actionId"`
	ActionType     string    `json:"actionType"`
	ActionOccurred time.Time `json:"actionOccurredAt"`
}

func (e LeadActionRecorded) EventName() string { return "leads.action.recorded" }

// LeadScoreUpdated is published when a recompute changed a lead's derived fields.
type LeadScoreUpdated struct {
	BaseEvent
	LeadID              uuid.UUID `json:"leadId"`
	DealerID            uuid.UUID `json:"dealerId"`
	PreviousScore       int       `json:"previousScore"`
	Score               int       `json:"score"`
	PreviousTemperature string    `json:"previousTemperature"`
	Temperature         string    `json:"temperature"`
}

func (e LeadScoreUpdated) EventName() string { return "leads.score.updated" }

// LeadStatusChanged is published for every effective status transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID    uuid.UUID `json:"leadId"`
	DealerID  uuid.UUID `json:"dealerId"`
	OldStatus string    `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
}

func (e LeadStatusChanged) EventName() string { return "leads.status.changed" }
