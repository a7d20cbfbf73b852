package domain

import "testing"

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from LeadStatus
		to   LeadStatus
		want bool
	}{
		{StatusNew, StatusContacted, true},
		{StatusNew, StatusQualified, true},
		{StatusNew, StatusConverted, false},
		{StatusNew, StatusNegotiating, false},
		{StatusContacted, StatusNegotiating, true},
		{StatusQualified, StatusNurturing, true},
		{StatusQualified, StatusConverted, true},
		{StatusNurturing, StatusNegotiating, true},
		{StatusNurturing, StatusContacted, true},
		{StatusNegotiating, StatusQualified, true},
		{StatusNegotiating, StatusConverted, true},
		{StatusNegotiating, StatusNew, false},
		{StatusConverted, StatusNew, false},
		{StatusConverted, StatusLost, false},
		{StatusLost, StatusContacted, false},
		{StatusContacted, StatusContacted, true},
		{StatusConverted, StatusConverted, true},
		{StatusNew, LeadStatus("Archived"), false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestEveryOpenStatusCanReachLost(t *testing.T) {
	for _, s := range AllStatuses {
		if s.IsTerminal() {
			if len(s.AllowedNext()) != 0 {
				t.Errorf("terminal status %s must have no outgoing transitions", s)
			}
			continue
		}
		if !s.CanTransitionTo(StatusLost) {
			t.Errorf("%s should be able to move to Lost", s)
		}
	}
}

func TestAllowedNextReturnsCopy(t *testing.T) {
	next := StatusNew.AllowedNext()
	next[0] = StatusConverted
	if StatusNew.AllowedNext()[0] != StatusContacted {
		t.Fatal("AllowedNext must not expose the transition table")
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" negotiating "); !ok || s != StatusNegotiating {
		t.Fatalf("expected Negotiating, got %q ok=%v", s, ok)
	}
	if _, ok := ParseStatus("Archived"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
}

func TestParseActionType(t *testing.T) {
	if a, ok := ParseActionType("testdrivescheduled"); !ok || a != ActionTestDriveScheduled {
		t.Fatalf("unexpected %q ok=%v", a, ok)
	}
	if ActionType("view").IsValid() {
		t.Fatal("IsValid requires the canonical spelling")
	}
	if !ActionView.IsValid() {
		t.Fatal("View must be valid")
	}
}

func TestParseTemperature(t *testing.T) {
	if temp, ok := ParseTemperature("HOT"); !ok || temp != TemperatureHot {
		t.Fatalf("expected Hot, got %q ok=%v", temp, ok)
	}
	if _, ok := ParseTemperature("Lukewarm"); ok {
		t.Fatal("expected unknown temperature to be rejected")
	}
	if _, ok := ParseTemperature(""); ok {
		t.Fatal("expected empty temperature to be rejected")
	}
}
