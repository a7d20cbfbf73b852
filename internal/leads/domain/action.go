package domain

import "strings"

// ActionType identifies a kind of buyer interaction.
type ActionType string

const (
	ActionView                 ActionType = "View"
	ActionContact              ActionType = "Contact"
	ActionFavorite             ActionType = "Favorite"
	ActionShare                ActionType = "Share"
	ActionComparison           ActionType = "Comparison"
	ActionTestDriveScheduled   ActionType = "TestDriveScheduled"
	ActionFinancingRequested   ActionType = "FinancingRequested"
	ActionPriceAlertSubscribed ActionType = "PriceAlertSubscribed"
	// Negative signals. They are recorded as compensating actions and lower engagement.
	ActionUnfavorite    ActionType = "Unfavorite"
	ActionNotInterested ActionType = "NotInterested"
)

// AllActionTypes lists every accepted action type.
var AllActionTypes = []ActionType{
	ActionView,
	ActionContact,
	ActionFavorite,
	ActionShare,
	ActionComparison,
	ActionTestDriveScheduled,
	ActionFinancingRequested,
	ActionPriceAlertSubscribed,
	ActionUnfavorite,
	ActionNotInterested,
}

// ParseActionType matches s case-insensitively against the known action types.
func ParseActionType(s string) (ActionType, bool) {
	for _, t := range AllActionTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, true
		}
	}
	return "", false
}

// IsValid reports whether t is a known action type.
func (t ActionType) IsValid() bool {
	for _, known := range AllActionTypes {
		if t == known {
			return true
		}
	}
	return false
}
