package lifecycle

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lead_engine_backend/internal/events"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/scoring"
	"lead_engine_backend/platform/apperr"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
)

var baseTime = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	repo  *repository.MemoryRepository
	bus   *events.InMemoryBus
	clock *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemory()
	bus := events.NewInMemoryBus(logger.Nop())
	svc := New(repo, scoring.NewCalculator(scoring.DefaultConfig()), bus, logger.Nop())

	clock := baseTime
	f := &fixture{svc: svc, repo: repo, bus: bus, clock: &clock}
	svc.now = func() time.Time { return *f.clock }
	return f
}

func (f *fixture) createLead(t *testing.T) repository.Lead {
	t.Helper()
	lead, created, err := f.svc.CreateOrGet(context.Background(), CreateParams{
		DealerID:  uuid.New(),
		VehicleID: uuid.New(),
		BuyerID:   uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Fatal("expected a new lead")
	}
	return lead
}

func (f *fixture) record(t *testing.T, leadID uuid.UUID, actionType domain.ActionType, at time.Time) {
	t.Helper()
	_, err := f.repo.AppendAction(context.Background(), repository.AppendActionParams{
		LeadID:     leadID,
		ActionType: actionType,
		OccurredAt: at,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateOrGetReturnsSameLead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	params := CreateParams{
		DealerID:     uuid.New(),
		VehicleID:    uuid.New(),
		BuyerID:      uuid.New(),
		UserFullName: "<b>Ana</b> Lopez",
		UserEmail:    "  Ana@Example.COM ",
		UserPhone:    "+1 201-555-0123",
	}

	first, created, err := f.svc.CreateOrGet(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected a new lead")
	}
	if first.UserFullName != "Ana Lopez" {
		t.Errorf("first.UserFullName = %v, want %v", first.UserFullName, "Ana Lopez")
	}
	if first.UserEmail != "ana@example.com" {
		t.Errorf("first.UserEmail = %v, want %v", first.UserEmail, "ana@example.com")
	}
	if first.UserPhone != "+12015550123" {
		t.Errorf("first.UserPhone = %v, want %v", first.UserPhone, "+12015550123")
	}

	second, created, err := f.svc.CreateOrGet(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected the existing lead")
	}
	if second.ID != first.ID {
		t.Errorf("second.ID = %v, want %v", second.ID, first.ID)
	}
}

func TestCreateOrGetRequiresIdentifiers(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.svc.CreateOrGet(context.Background(), CreateParams{DealerID: uuid.New()})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateOrGetPublishesLeadCreatedOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var mu sync.Mutex
	count := 0
	f.bus.Subscribe(events.LeadCreated{}.EventName(), events.HandlerFunc(func(context.Context, events.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	params := CreateParams{DealerID: uuid.New(), VehicleID: uuid.New(), BuyerID: uuid.New()}
	_, _, err := f.svc.CreateOrGet(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _, err = f.svc.CreateOrGet(ctx, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.bus.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("count = %v, want %v", count, 1)
	}
}

func TestRecomputeDerivedScenarios(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := f.createLead(t)

	f.record(t, lead.ID, domain.ActionView, baseTime.Add(-30*time.Minute))
	after, err := f.svc.RecomputeDerived(ctx, lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.EngagementScore != 2 {
		t.Errorf("after.EngagementScore = %v, want %v", after.EngagementScore, 2)
	}
	if after.RecencyScore != 30 {
		t.Errorf("after.RecencyScore = %v, want %v", after.RecencyScore, 30)
	}
	if after.IntentScore != 0 {
		t.Errorf("after.IntentScore = %v, want %v", after.IntentScore, 0)
	}
	if after.Score != 32 {
		t.Errorf("after.Score = %v, want %v", after.Score, 32)
	}
	if after.Temperature != domain.TemperatureCold {
		t.Errorf("after.Temperature = %v, want %v", after.Temperature, domain.TemperatureCold)
	}

	f.record(t, lead.ID, domain.ActionTestDriveScheduled, baseTime.Add(-20*time.Minute))
	f.record(t, lead.ID, domain.ActionContact, baseTime.Add(-10*time.Minute))
	after, err = f.svc.RecomputeDerived(ctx, lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.EngagementScore != 20 {
		t.Errorf("after.EngagementScore = %v, want %v", after.EngagementScore, 20)
	}
	if after.IntentScore != 20 {
		t.Errorf("after.IntentScore = %v, want %v", after.IntentScore, 20)
	}
	if after.Score != 70 {
		t.Errorf("after.Score = %v, want %v", after.Score, 70)
	}
	if after.Temperature != domain.TemperatureHot {
		t.Errorf("after.Temperature = %v, want %v", after.Temperature, domain.TemperatureHot)
	}
	if after.ContactCount != 1 {
		t.Errorf("after.ContactCount = %v, want %v", after.ContactCount, 1)
	}
	if !after.HasScheduledTestDrive {
		t.Error("expected after.HasScheduledTestDrive")
	}
	if after.ScoreVersion != scoring.DefaultVersion {
		t.Errorf("after.ScoreVersion = %v, want %v", after.ScoreVersion, scoring.DefaultVersion)
	}
}

func TestGetRefreshesStaleRecency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lead := f.createLead(t)

	f.record(t, lead.ID, domain.ActionView, baseTime.Add(-time.Hour))
	f.record(t, lead.ID, domain.ActionContact, baseTime)
	scored, err := f.svc.RecomputeDerived(ctx, lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scored.RecencyScore != 30 {
		t.Fatalf("scored.RecencyScore = %v, want %v", scored.RecencyScore, 30)
	}

	*f.clock = baseTime.Add(10 * 24 * time.Hour)
	view, err := f.svc.Get(ctx, lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if view.Lead.RecencyScore != 5 {
		t.Errorf("view.Lead.RecencyScore = %v, want %v", view.Lead.RecencyScore, 5)
	}
	if view.Lead.Score >= scored.Score {
		t.Errorf("expected view.Lead.Score < scored.Score, got %v >= %v", view.Lead.Score, scored.Score)
	}
	if view.Lead.EngagementScore != scored.EngagementScore {
		t.Errorf("view.Lead.EngagementScore = %v, want %v", view.Lead.EngagementScore, scored.EngagementScore)
	}
	if view.Lead.IntentScore != scored.IntentScore {
		t.Errorf("view.Lead.IntentScore = %v, want %v", view.Lead.IntentScore, scored.IntentScore)
	}
	if len(view.RecentActions) != 2 {
		t.Fatalf("len(view.RecentActions) = %d, want %d", len(view.RecentActions), 2)
	}
	if view.RecentActions[0].ActionType != domain.ActionContact {
		t.Errorf("view.RecentActions[0].ActionType = %v, want %v", view.RecentActions[0].ActionType, domain.ActionContact)
	}
	if len(view.RecommendedAction) == 0 {
		t.Error("expected non-empty view.RecommendedAction")
	}
}

func TestGetUnknownLead(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRecentActionsAreBounded(t *testing.T) {
	f := newFixture(t)
	f.svc.SetRecentActionsLimit(3)
	lead := f.createLead(t)

	for i := 0; i < 5; i++ {
		f.record(t, lead.ID, domain.ActionView, baseTime.Add(-time.Duration(i)*time.Minute))
	}

	view, err := f.svc.Get(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(view.RecentActions) != 3 {
		t.Fatalf("len(view.RecentActions) = %d, want %d", len(view.RecentActions), 3)
	}
	if !view.RecentActions[0].OccurredAt.Equal(baseTime) {
		t.Errorf("view.RecentActions[0].OccurredAt = %v, want %v", view.RecentActions[0].OccurredAt, baseTime)
	}
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	dealer := uuid.New()

	for i := 0; i < 5; i++ {
		_, _, err := f.svc.CreateOrGet(ctx, CreateParams{DealerID: dealer, VehicleID: uuid.New(), BuyerID: uuid.New()})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	result, err := f.svc.List(ctx, ListParams{DealerID: dealer, Page: 2, PageSize: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalCount != 5 {
		t.Errorf("result.TotalCount = %v, want %v", result.TotalCount, 5)
	}
	if result.TotalPages != 3 {
		t.Errorf("result.TotalPages = %v, want %v", result.TotalPages, 3)
	}
	if len(result.Leads) != 2 {
		t.Errorf("len(result.Leads) = %d, want %d", len(result.Leads), 2)
	}

	result, err = f.svc.List(ctx, ListParams{DealerID: uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TotalCount != 0 {
		t.Errorf("result.TotalCount = %v, want %v", result.TotalCount, 0)
	}
	if result.TotalPages != 0 {
		t.Errorf("result.TotalPages = %v, want %v", result.TotalPages, 0)
	}
	if len(result.Leads) != 0 {
		t.Errorf("expected empty result.Leads, got %v", result.Leads)
	}
}

// flakyRepo fails the first n recomputes with an infrastructure error.
type flakyRepo struct {
	*repository.MemoryRepository
	mu       sync.Mutex
	failures int
	calls    int
}

func (r *flakyRepo) RecomputeLocked(ctx context.Context, id uuid.UUID, derive repository.DeriveFunc) (repository.RecomputeResult, error) {
	r.mu.Lock()
	r.calls++
	fail := r.calls <= r.failures
	r.mu.Unlock()
	if fail {
		return repository.RecomputeResult{}, errors.New("connection reset by peer")
	}
	return r.MemoryRepository.RecomputeLocked(ctx, id, derive)
}

func TestRecomputeWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("recovers after transient failures", func(t *testing.T) {
		repo := &flakyRepo{MemoryRepository: repository.NewMemory(), failures: 2}
		svc := New(repo, scoring.NewCalculator(scoring.DefaultConfig()), events.NewInMemoryBus(logger.Nop()), logger.Nop())
		lead, _, _ := svc.CreateOrGet(ctx, CreateParams{DealerID: uuid.New(), VehicleID: uuid.New(), BuyerID: uuid.New()})

		if err := svc.RecomputeWithRetry(ctx, lead.ID, 3, time.Millisecond); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if repo.calls != 3 {
			t.Errorf("repo.calls = %v, want %v", repo.calls, 3)
		}
	})

	t.Run("surfaces transient failure when retries exhaust", func(t *testing.T) {
		repo := &flakyRepo{MemoryRepository: repository.NewMemory(), failures: 10}
		svc := New(repo, scoring.NewCalculator(scoring.DefaultConfig()), events.NewInMemoryBus(logger.Nop()), logger.Nop())
		lead, _, _ := svc.CreateOrGet(ctx, CreateParams{DealerID: uuid.New(), VehicleID: uuid.New(), BuyerID: uuid.New()})

		err := svc.RecomputeWithRetry(ctx, lead.ID, 3, time.Millisecond)
		if err == nil {
			t.Fatal("expected an error")
		}
		if apperr.GetCode(err) != apperr.CodeTransientStorageFailure {
			t.Errorf("apperr.GetCode(err) = %v, want %v", apperr.GetCode(err), apperr.CodeTransientStorageFailure)
		}
		if repo.calls != 3 {
			t.Errorf("repo.calls = %v, want %v", repo.calls, 3)
		}
	})

	t.Run("does not retry not found", func(t *testing.T) {
		f := newFixture(t)
		err := f.svc.RecomputeWithRetry(ctx, uuid.New(), 5, time.Millisecond)
		if err == nil {
			t.Fatal("expected an error")
		}
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("expected not found error, got %v", err)
		}
	})
}
