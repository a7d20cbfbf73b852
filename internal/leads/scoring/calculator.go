// Package scoring implements the deterministic rule-based lead scorer: the
// three bounded sub-scores, temperature tiers, the conversion curve and the
// next-action recommender. Every function here is pure; callers pass the
// evaluation time explicitly.
package scoring

import (
	"time"

	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
)

// Signals is the compact view of a lead's action log the scorer works on.
type Signals struct {
	Counts             map[domain.ActionType]int
	FirstInteractionAt *time.Time
	LastInteractionAt  *time.Time
}

// SignalsFromTallies builds Signals from per-type aggregates.
func SignalsFromTallies(tallies []repository.ActionTally) Signals {
	s := Signals{Counts: make(map[domain.ActionType]int, len(tallies))}
	for _, t := range tallies {
		if t.Count == 0 {
			continue
		}
		s.Counts[t.ActionType] += t.Count
		s.observe(t.FirstAt)
		s.observe(t.LastAt)
	}
	return s
}

// SignalsFromActions builds Signals from raw log entries.
func SignalsFromActions(actions []repository.Action) Signals {
	s := Signals{Counts: make(map[domain.ActionType]int)}
	for _, a := range actions {
		s.Counts[a.ActionType]++
		s.observe(a.OccurredAt)
	}
	return s
}

func (s *Signals) observe(at time.Time) {
	if s.FirstInteractionAt == nil || at.Before(*s.FirstInteractionAt) {
		v := at
		s.FirstInteractionAt = &v
	}
	if s.LastInteractionAt == nil || at.After(*s.LastInteractionAt) {
		v := at
		s.LastInteractionAt = &v
	}
}

func (s Signals) HasScheduledTestDrive() bool {
	return s.Counts[domain.ActionTestDriveScheduled] > 0
}

func (s Signals) HasRequestedFinancing() bool {
	return s.Counts[domain.ActionFinancingRequested] > 0
}

func (s Signals) ContactCount() int {
	return s.Counts[domain.ActionContact]
}

// Breakdown is the result of a score computation.
type Breakdown struct {
	Engagement int
	Recency    int
	Intent     int
	Total      int
}

// Calculator computes sub-scores using a validated Config.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// Version identifies the rule set used, stored next to every computed score.
func (c *Calculator) Version() string {
	return c.cfg.Version
}

// Compute returns all sub-scores and the clamped total at time now.
// Identical inputs always produce identical output.
func (c *Calculator) Compute(s Signals, now time.Time) Breakdown {
	b := Breakdown{
		Engagement: c.Engagement(s.Counts),
		Recency:    c.Recency(s.LastInteractionAt, now),
		Intent:     c.Intent(s),
	}
	b.Total = clamp(b.Engagement+b.Recency+b.Intent, 0, MaxScore)
	return b
}

// Engagement sums per-type contributions with diminishing returns and caps at MaxEngagement.
func (c *Calculator) Engagement(counts map[domain.ActionType]int) int {
	total := 0
	for actionType, count := range counts {
		total += c.typeContribution(actionType, count)
	}
	return clamp(total, 0, MaxEngagement)
}

func (c *Calculator) typeContribution(t domain.ActionType, count int) int {
	w := c.cfg.weight(t)
	if count <= 0 || w == 0 {
		return 0
	}
	if w < 0 {
		return w * count
	}
	full := min(count, c.cfg.Engagement.FullWeightOccurrences)
	return full*w + (count-full)*reducedWeight(w)
}

// Impact is the marginal engagement contribution of one more action of type t
// when priorCount actions of that type are already logged.
func (c *Calculator) Impact(t domain.ActionType, priorCount int) int {
	w := c.cfg.weight(t)
	if w <= 0 || priorCount < c.cfg.Engagement.FullWeightOccurrences {
		return w
	}
	return reducedWeight(w)
}

func reducedWeight(w int) int {
	return max(1, w/2)
}

// Recency maps elapsed time since the last interaction to the first band it
// fits in. No interaction scores 0; a last interaction after now counts as
// zero elapsed time.
func (c *Calculator) Recency(last *time.Time, now time.Time) int {
	if last == nil {
		return 0
	}
	elapsed := max(now.Sub(*last), 0)
	for _, band := range c.cfg.Recency.Bands {
		if elapsed <= band.Within {
			return band.Points
		}
	}
	return 0
}

// FullRecencyWindow is how long after an interaction recency stays at its
// top band. Leads last active more recently than this never need a decay pass.
func (c *Calculator) FullRecencyWindow() time.Duration {
	if len(c.cfg.Recency.Bands) == 0 {
		return 0
	}
	return c.cfg.Recency.Bands[0].Within
}

// Intent scores the presence of high-intent signals, independent of frequency.
func (c *Calculator) Intent(s Signals) int {
	intent := 0
	if s.HasScheduledTestDrive() {
		intent += c.cfg.Intent.TestDrive
	}
	if s.HasRequestedFinancing() {
		intent += c.cfg.Intent.Financing
	}
	if s.ContactCount() > 0 {
		intent += c.cfg.Intent.Contact
	}
	return min(intent, MaxIntent)
}

// Derive computes every engine-owned field of a lead from its action tallies.
// Status is taken from the lead since the conversion curve depends on it.
func (c *Calculator) Derive(lead repository.Lead, tallies []repository.ActionTally, now time.Time) repository.DerivedFields {
	s := SignalsFromTallies(tallies)
	b := c.Compute(s, now)
	temp := Classify(b.Total)

	return repository.DerivedFields{
		Score:                 b.Total,
		EngagementScore:       b.Engagement,
		RecencyScore:          b.Recency,
		IntentScore:           b.Intent,
		Temperature:           temp,
		ConversionProbability: Estimate(b.Total, temp, lead.Status),
		ViewCount:             s.Counts[domain.ActionView],
		ContactCount:          s.Counts[domain.ActionContact],
		FavoriteCount:         s.Counts[domain.ActionFavorite],
		ShareCount:            s.Counts[domain.ActionShare],
		ComparisonCount:       s.Counts[domain.ActionComparison],
		HasScheduledTestDrive: s.HasScheduledTestDrive(),
		HasRequestedFinancing: s.HasRequestedFinancing(),
		FirstInteractionAt:    s.FirstInteractionAt,
		LastInteractionAt:     s.LastInteractionAt,
		ScoreVersion:          c.cfg.Version,
		ScoredAt:              now,
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
