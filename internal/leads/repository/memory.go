package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"lead_engine_backend/internal/leads/domain"

	"github.com/google/uuid"
)

type relationshipKey struct {
	dealerID, vehicleID, buyerID uuid.UUID
}

// MemoryRepository is an in-process LeadsRepository used by tests and local
// development without Postgres. Writes to one lead are serialized by a
// per-lead mutex, mirroring the row lock taken by Repository.
type MemoryRepository struct {
	mu       sync.RWMutex
	leads    map[uuid.UUID]Lead
	byRel    map[relationshipKey]uuid.UUID
	actions  map[uuid.UUID][]Action
	history  map[uuid.UUID][]StatusChange
	leadLock map[uuid.UUID]*sync.Mutex
	now      func() time.Time
}

func NewMemory() *MemoryRepository {
	return &MemoryRepository{
		leads:    make(map[uuid.UUID]Lead),
		byRel:    make(map[relationshipKey]uuid.UUID),
		actions:  make(map[uuid.UUID][]Action),
		history:  make(map[uuid.UUID][]StatusChange),
		leadLock: make(map[uuid.UUID]*sync.Mutex),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lead, ok := m.leads[id]
	if !ok {
		return Lead{}, ErrNotFound
	}
	return cloneLead(lead), nil
}

func (m *MemoryRepository) CreateOrGet(_ context.Context, params CreateLeadParams) (Lead, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := relationshipKey{params.DealerID, params.VehicleID, params.BuyerID}
	if id, ok := m.byRel[key]; ok {
		lead := m.leads[id]
		if lead.UserFullName == "" {
			lead.UserFullName = params.UserFullName
		}
		if lead.UserEmail == "" {
			lead.UserEmail = params.UserEmail
		}
		if lead.UserPhone == "" {
			lead.UserPhone = params.UserPhone
		}
		m.leads[id] = lead
		return cloneLead(lead), false, nil
	}

	now := m.now()
	lead := Lead{
		ID:           uuid.New(),
		DealerID:     params.DealerID,
		VehicleID:    params.VehicleID,
		BuyerID:      params.BuyerID,
		UserFullName: params.UserFullName,
		UserEmail:    params.UserEmail,
		UserPhone:    params.UserPhone,
		Temperature:  domain.TemperatureCold,
		Status:       domain.StatusNew,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.leads[lead.ID] = lead
	m.byRel[key] = lead.ID
	m.leadLock[lead.ID] = &sync.Mutex{}
	return cloneLead(lead), true, nil
}

func (m *MemoryRepository) List(_ context.Context, params ListParams) ([]Lead, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(params.Search))
	matched := make([]Lead, 0)
	for _, lead := range m.leads {
		if lead.DealerID != params.DealerID {
			continue
		}
		if params.Temperature != nil && lead.Temperature != *params.Temperature {
			continue
		}
		if params.Status != nil && lead.Status != *params.Status {
			continue
		}
		if search != "" && !matchesSearch(lead, search) {
			continue
		}
		matched = append(matched, lead)
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !timeEqual(a.LastInteractionAt, b.LastInteractionAt) {
			// nulls last
			if a.LastInteractionAt == nil {
				return false
			}
			if b.LastInteractionAt == nil {
				return true
			}
			return a.LastInteractionAt.After(*b.LastInteractionAt)
		}
		return a.ID.String() < b.ID.String()
	})

	total := len(matched)
	start := min(max(params.Offset, 0), total)
	end := total
	if params.Limit > 0 {
		end = min(start+params.Limit, total)
	}

	page := make([]Lead, 0, end-start)
	for _, lead := range matched[start:end] {
		page = append(page, cloneLead(lead))
	}
	return page, total, nil
}

func matchesSearch(lead Lead, search string) bool {
	return strings.Contains(strings.ToLower(lead.UserFullName), search) ||
		strings.Contains(strings.ToLower(lead.UserEmail), search) ||
		strings.Contains(strings.ToLower(lead.UserPhone), search)
}

// lockLead acquires the per-lead write lock. The returned func releases it.
func (m *MemoryRepository) lockLead(id uuid.UUID) (func(), error) {
	m.mu.RLock()
	l, ok := m.leadLock[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	l.Lock()
	return l.Unlock, nil
}

func (m *MemoryRepository) RecomputeLocked(_ context.Context, id uuid.UUID, derive DeriveFunc) (RecomputeResult, error) {
	unlock, err := m.lockLead(id)
	if err != nil {
		return RecomputeResult{}, err
	}
	defer unlock()

	m.mu.RLock()
	before := cloneLead(m.leads[id])
	tallies := tallyMemory(m.actions[id])
	m.mu.RUnlock()

	derived, err := derive(before, tallies)
	if err != nil {
		return RecomputeResult{}, err
	}

	m.mu.Lock()
	after := m.leads[id]
	after.Score = derived.Score
	after.EngagementScore = derived.EngagementScore
	after.RecencyScore = derived.RecencyScore
	after.IntentScore = derived.IntentScore
	after.Temperature = derived.Temperature
	after.ConversionProbability = derived.ConversionProbability
	after.ViewCount = derived.ViewCount
	after.ContactCount = derived.ContactCount
	after.FavoriteCount = derived.FavoriteCount
	after.ShareCount = derived.ShareCount
	after.ComparisonCount = derived.ComparisonCount
	after.HasScheduledTestDrive = derived.HasScheduledTestDrive
	after.HasRequestedFinancing = derived.HasRequestedFinancing
	after.FirstInteractionAt = copyTime(derived.FirstInteractionAt)
	after.LastInteractionAt = copyTime(derived.LastInteractionAt)
	after.ScoreVersion = derived.ScoreVersion
	scoredAt := derived.ScoredAt
	after.ScoredAt = &scoredAt
	after.UpdatedAt = m.now()
	m.leads[id] = after
	m.mu.Unlock()

	return RecomputeResult{Before: before, After: cloneLead(after)}, nil
}

func (m *MemoryRepository) UpdateStatusLocked(_ context.Context, id uuid.UUID, apply StatusFunc) (StatusResult, error) {
	unlock, err := m.lockLead(id)
	if err != nil {
		return StatusResult{}, err
	}
	defer unlock()

	m.mu.RLock()
	before := cloneLead(m.leads[id])
	m.mu.RUnlock()

	update, err := apply(before)
	if err != nil {
		return StatusResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	after := m.leads[id]
	after.Status = update.Status
	if update.DealerNotes != nil {
		after.DealerNotes = copyString(update.DealerNotes)
	}
	if update.LastContactedAt != nil {
		after.LastContactedAt = copyTime(update.LastContactedAt)
	}
	if after.ConvertedAt == nil && update.ConvertedAt != nil {
		after.ConvertedAt = copyTime(update.ConvertedAt)
	}
	after.ConversionProbability = update.ConversionProbability
	after.UpdatedAt = m.now()
	m.leads[id] = after

	result := StatusResult{Before: before, After: cloneLead(after)}
	if update.Changed {
		change := StatusChange{
			ID:        uuid.New(),
			LeadID:    id,
			OldStatus: before.Status,
			NewStatus: update.Status,
			Notes:     copyString(update.DealerNotes),
			ChangedAt: update.ChangedAt,
		}
		m.history[id] = append(m.history[id], change)
		result.Change = &change
	}
	return result, nil
}

func (m *MemoryRepository) AppendAction(_ context.Context, params AppendActionParams) (Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.leads[params.LeadID]; !ok {
		return Action{}, ErrNotFound
	}
	action := Action{
		ID:          uuid.New(),
		LeadID:      params.LeadID,
		ActionType:  params.ActionType,
		OccurredAt:  params.OccurredAt,
		ScoreImpact: params.ScoreImpact,
		Description: params.Description,
		CreatedAt:   m.now(),
	}
	m.actions[params.LeadID] = append(m.actions[params.LeadID], action)
	return action, nil
}

func (m *MemoryRepository) CountActionsByType(_ context.Context, leadID uuid.UUID, actionType domain.ActionType) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, a := range m.actions[leadID] {
		if a.ActionType == actionType {
			count++
		}
	}
	return count, nil
}

func (m *MemoryRepository) ListActions(_ context.Context, leadID uuid.UUID, limit int) ([]Action, error) {
	m.mu.RLock()
	actions := append([]Action(nil), m.actions[leadID]...)
	m.mu.RUnlock()

	sort.SliceStable(actions, func(i, j int) bool {
		if !actions[i].OccurredAt.Equal(actions[j].OccurredAt) {
			return actions[i].OccurredAt.After(actions[j].OccurredAt)
		}
		return actions[i].CreatedAt.After(actions[j].CreatedAt)
	})
	if limit > 0 && len(actions) > limit {
		actions = actions[:limit]
	}
	if actions == nil {
		actions = make([]Action, 0)
	}
	return actions, nil
}

func (m *MemoryRepository) ListStatusHistory(_ context.Context, leadID uuid.UUID) ([]StatusChange, error) {
	m.mu.RLock()
	history := append([]StatusChange(nil), m.history[leadID]...)
	m.mu.RUnlock()

	// newest first, matching the SQL ordering
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	if history == nil {
		history = make([]StatusChange, 0)
	}
	return history, nil
}

func (m *MemoryRepository) SummarizeDealer(_ context.Context, dealerID uuid.UUID) (DealerSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := DealerSummary{StatusCounts: make(map[domain.LeadStatus]int, len(domain.AllStatuses))}
	for _, status := range domain.AllStatuses {
		s.StatusCounts[status] = 0
	}

	scoreSum := 0
	for _, lead := range m.leads {
		if lead.DealerID != dealerID {
			continue
		}
		s.TotalLeads++
		scoreSum += lead.Score
		switch lead.Temperature {
		case domain.TemperatureHot:
			s.HotLeads++
		case domain.TemperatureWarm:
			s.WarmLeads++
		case domain.TemperatureCold:
			s.ColdLeads++
		}
		s.StatusCounts[lead.Status]++
	}
	s.ConvertedLeads = s.StatusCounts[domain.StatusConverted]
	s.LostLeads = s.StatusCounts[domain.StatusLost]
	if s.TotalLeads > 0 {
		s.AverageScore = float64(scoreSum) / float64(s.TotalLeads)
	}
	return s, nil
}

func (m *MemoryRepository) ListDecayCandidates(_ context.Context, staleBefore time.Time, after uuid.UUID, limit int) ([]DecayCandidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := make([]DecayCandidate, 0)
	for _, lead := range m.sortedLeadsAfter(after) {
		if lead.RecencyScore == 0 || lead.LastInteractionAt == nil || !lead.LastInteractionAt.Before(staleBefore) {
			continue
		}
		candidates = append(candidates, DecayCandidate{
			ID:                lead.ID,
			LastInteractionAt: *lead.LastInteractionAt,
			RecencyScore:      lead.RecencyScore,
		})
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

func (m *MemoryRepository) ListLeadIDs(_ context.Context, dealerID *uuid.UUID, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0, limit)
	for _, lead := range m.sortedLeadsAfter(after) {
		if dealerID != nil && lead.DealerID != *dealerID {
			continue
		}
		ids = append(ids, lead.ID)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

// sortedLeadsAfter returns leads with id > after in id order. Caller holds m.mu.
func (m *MemoryRepository) sortedLeadsAfter(after uuid.UUID) []Lead {
	out := make([]Lead, 0, len(m.leads))
	for id, lead := range m.leads {
		if compareUUID(id, after) > 0 {
			out = append(out, lead)
		}
	}
	sort.Slice(out, func(i, j int) bool { return compareUUID(out[i].ID, out[j].ID) < 0 })
	return out
}

func tallyMemory(actions []Action) []ActionTally {
	byType := make(map[domain.ActionType]*ActionTally)
	for _, a := range actions {
		t, ok := byType[a.ActionType]
		if !ok {
			t = &ActionTally{ActionType: a.ActionType, FirstAt: a.OccurredAt, LastAt: a.OccurredAt}
			byType[a.ActionType] = t
		}
		t.Count++
		if a.OccurredAt.Before(t.FirstAt) {
			t.FirstAt = a.OccurredAt
		}
		if a.OccurredAt.After(t.LastAt) {
			t.LastAt = a.OccurredAt
		}
	}

	tallies := make([]ActionTally, 0, len(byType))
	for _, t := range byType {
		tallies = append(tallies, *t)
	}
	sort.Slice(tallies, func(i, j int) bool { return tallies[i].ActionType < tallies[j].ActionType })
	return tallies
}

// compareUUID orders ids bytewise, matching Postgres uuid ordering.
func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func timeEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneLead(lead Lead) Lead {
	lead.DealerNotes = copyString(lead.DealerNotes)
	lead.FirstInteractionAt = copyTime(lead.FirstInteractionAt)
	lead.LastInteractionAt = copyTime(lead.LastInteractionAt)
	lead.LastContactedAt = copyTime(lead.LastContactedAt)
	lead.ConvertedAt = copyTime(lead.ConvertedAt)
	lead.ScoredAt = copyTime(lead.ScoredAt)
	return lead
}
