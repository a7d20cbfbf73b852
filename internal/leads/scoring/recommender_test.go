package scoring

import (
	"testing"
	"time"

	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
)

func TestRecommend(t *testing.T) {
	hoursAgo := func(h int) *time.Time {
		v := testNow.Add(-time.Duration(h) * time.Hour)
		return &v
	}

	tests := []struct {
		name          string
		temp          domain.Temperature
		status        domain.LeadStatus
		lastContacted *time.Time
		want          string
	}{
		{"converted wins over temperature", domain.TemperatureHot, domain.StatusConverted, nil, RecommendDealClosed},
		{"lost", domain.TemperatureWarm, domain.StatusLost, nil, RecommendLeadClosed},
		{"hot new", domain.TemperatureHot, domain.StatusNew, nil, RecommendContactNow},
		{"hot negotiating", domain.TemperatureHot, domain.StatusNegotiating, hoursAgo(1), RecommendCloseDeal},
		{"hot never contacted", domain.TemperatureHot, domain.StatusQualified, nil, RecommendCallToday},
		{"hot contacted two days ago", domain.TemperatureHot, domain.StatusContacted, hoursAgo(48), RecommendCallToday},
		{"hot contacted recently", domain.TemperatureHot, domain.StatusContacted, hoursAgo(2), RecommendInviteTestDrive},
		{"warm new", domain.TemperatureWarm, domain.StatusNew, nil, RecommendReachOut},
		{"warm never contacted", domain.TemperatureWarm, domain.StatusNurturing, nil, "Follow up: no contact yet"},
		{"warm contacted long ago", domain.TemperatureWarm, domain.StatusContacted, hoursAgo(5 * 24), "Follow up: last contact was 5 days ago"},
		{"warm contacted recently", domain.TemperatureWarm, domain.StatusContacted, hoursAgo(24), RecommendShareSimilar},
		{"cold", domain.TemperatureCold, domain.StatusContacted, hoursAgo(24 * 40), RecommendNurture},
		{"cold new", domain.TemperatureCold, domain.StatusNew, nil, RecommendNurture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lead := repository.Lead{Temperature: tt.temp, Status: tt.status, LastContactedAt: tt.lastContacted}
			if got := Recommend(lead, testNow); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestRecommendDoesNotMutateLead(t *testing.T) {
	contacted := testNow.Add(-100 * time.Hour)
	lead := repository.Lead{Temperature: domain.TemperatureWarm, Status: domain.StatusContacted, LastContactedAt: &contacted}
	before := lead

	first := Recommend(lead, testNow)
	second := Recommend(lead, testNow)

	if first != second {
		t.Errorf("expected identical output, got %q and %q", first, second)
	}
	if lead.Status != before.Status || !lead.LastContactedAt.Equal(*before.LastContactedAt) {
		t.Error("lead was mutated")
	}
}
