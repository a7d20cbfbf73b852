package scoring

import (
	"testing"

	"lead_engine_backend/internal/leads/domain"
)

func TestEstimate(t *testing.T) {
	tests := []struct {
		name   string
		score  int
		status domain.LeadStatus
		want   float64
	}{
		{"converted overrides score", 5, domain.StatusConverted, 100},
		{"lost overrides score", 95, domain.StatusLost, 0},
		{"zero score new lead", 0, domain.StatusNew, 0},
		{"hot qualified", 70, domain.StatusQualified, 52.1},
		{"perfect new lead", 100, domain.StatusNew, 95},
		{"open leads stay below certainty", 100, domain.StatusNegotiating, 99},
		{"warm contacted", 50, domain.StatusContacted, 25.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Estimate(tt.score, Classify(tt.score), tt.status)
			if got != tt.want {
				t.Errorf("expected %.1f, got %.1f", tt.want, got)
			}
		})
	}
}

func TestEstimateIsNonDecreasingInScore(t *testing.T) {
	for _, status := range domain.AllStatuses {
		prev := Estimate(0, Classify(0), status)
		for s := 1; s <= MaxScore; s++ {
			got := Estimate(s, Classify(s), status)
			if got < prev {
				t.Fatalf("%s: probability fell from %.1f to %.1f at score %d", status, prev, got, s)
			}
			if got < 0 || got > 100 {
				t.Fatalf("%s: probability %.1f out of range", status, got)
			}
			prev = got
		}
	}
}
