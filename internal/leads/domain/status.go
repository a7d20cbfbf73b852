// Package domain holds the lead engine's value types and the status state machine.
package domain

import "strings"

// LeadStatus is the lifecycle state of a lead.
type LeadStatus string

const (
	StatusNew         LeadStatus = "New"
	StatusContacted   LeadStatus = "Contacted"
	StatusQualified   LeadStatus = "Qualified"
	StatusNurturing   LeadStatus = "Nurturing"
	StatusNegotiating LeadStatus = "Negotiating"
	StatusConverted   LeadStatus = "Converted"
	StatusLost        LeadStatus = "Lost"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []LeadStatus{
	StatusNew,
	StatusContacted,
	StatusQualified,
	StatusNurturing,
	StatusNegotiating,
	StatusConverted,
	StatusLost,
}

// transitions is the adjacency list of the status state machine.
// Converted and Lost have no outgoing edges.
var transitions = map[LeadStatus][]LeadStatus{
	StatusNew:         {StatusContacted, StatusQualified, StatusNurturing, StatusLost},
	StatusContacted:   {StatusQualified, StatusNurturing, StatusNegotiating, StatusLost},
	StatusQualified:   {StatusNurturing, StatusNegotiating, StatusConverted, StatusLost},
	StatusNurturing:   {StatusContacted, StatusQualified, StatusNegotiating, StatusLost},
	StatusNegotiating: {StatusQualified, StatusNurturing, StatusConverted, StatusLost},
	StatusConverted:   {},
	StatusLost:        {},
}

// ParseStatus matches s case-insensitively against the known statuses.
func ParseStatus(s string) (LeadStatus, bool) {
	for _, status := range AllStatuses {
		if strings.EqualFold(string(status), strings.TrimSpace(s)) {
			return status, true
		}
	}
	return "", false
}

// IsValid reports whether s is a known status.
func (s LeadStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether no further transitions are possible.
func (s LeadStatus) IsTerminal() bool {
	return s == StatusConverted || s == StatusLost
}

// AllowedNext returns the statuses reachable from s in one step.
func (s LeadStatus) AllowedNext() []LeadStatus {
	next := transitions[s]
	out := make([]LeadStatus, len(next))
	copy(out, next)
	return out
}

// CanTransitionTo reports whether moving from s to next is permitted.
// Staying in the same status is always permitted and is a no-op.
func (s LeadStatus) CanTransitionTo(next LeadStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	if s == next {
		return true
	}
	for _, candidate := range transitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// StatusStrings converts statuses to plain strings for API payloads.
func StatusStrings(statuses []LeadStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
