package scoring

import (
	"fmt"
	"time"

	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
)

const (
	hotFollowUpAfter  = 24 * time.Hour
	warmFollowUpAfter = 3 * 24 * time.Hour
)

// Recommendation texts.
const (
	RecommendDealClosed      = "Deal closed: ask for a review and offer after-sales services"
	RecommendLeadClosed      = "Lead closed: no action required"
	RecommendContactNow      = "Contact immediately: buyer shows strong purchase intent"
	RecommendCloseDeal       = "Prepare a final offer and close the deal"
	RecommendCallToday       = "Call today: hot lead awaiting follow-up"
	RecommendInviteTestDrive = "Invite for a test drive or send a personalised offer"
	RecommendReachOut        = "Reach out within 24 hours"
	RecommendShareSimilar    = "Share similar vehicles and financing options"
	RecommendNurture         = "Low priority: nurture via email"
	recommendFollowUpNever   = "Follow up: no contact yet"
	recommendFollowUpFormat  = "Follow up: last contact was %d days ago"
)

// Recommend suggests the dealer's next step. It reads only the lead's stored
// fields and now, and never mutates anything.
func Recommend(lead repository.Lead, now time.Time) string {
	switch lead.Status {
	case domain.StatusConverted:
		return RecommendDealClosed
	case domain.StatusLost:
		return RecommendLeadClosed
	}

	sinceContact, contacted := timeSince(lead.LastContactedAt, now)

	switch lead.Temperature {
	case domain.TemperatureHot:
		switch {
		case lead.Status == domain.StatusNew:
			return RecommendContactNow
		case lead.Status == domain.StatusNegotiating:
			return RecommendCloseDeal
		case !contacted || sinceContact > hotFollowUpAfter:
			return RecommendCallToday
		default:
			return RecommendInviteTestDrive
		}
	case domain.TemperatureWarm:
		switch {
		case lead.Status == domain.StatusNew:
			return RecommendReachOut
		case !contacted:
			return recommendFollowUpNever
		case sinceContact > warmFollowUpAfter:
			return fmt.Sprintf(recommendFollowUpFormat, int(sinceContact/(24*time.Hour)))
		default:
			return RecommendShareSimilar
		}
	default:
		return RecommendNurture
	}
}

func timeSince(t *time.Time, now time.Time) (time.Duration, bool) {
	if t == nil {
		return 0, false
	}
	return max(now.Sub(*t), 0), true
}
