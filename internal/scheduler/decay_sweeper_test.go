package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/internal/leads/scoring"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sweepBase = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

// clockedRecomputer recomputes against the memory repository at a fixed time.
type clockedRecomputer struct {
	repo  *repository.MemoryRepository
	calc  *scoring.Calculator
	now   time.Time
	fail  map[uuid.UUID]bool
	calls int
}

func (r *clockedRecomputer) RecomputeDerived(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	r.calls++
	if r.fail[id] {
		return repository.Lead{}, errors.New("boom")
	}
	res, err := r.repo.RecomputeLocked(ctx, id, func(lead repository.Lead, tallies []repository.ActionTally) (repository.DerivedFields, error) {
		return r.calc.Derive(lead, tallies, r.now), nil
	})
	return res.After, err
}

func seedScoredLead(t *testing.T, repo *repository.MemoryRepository, rec *clockedRecomputer, lastAction time.Time) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	lead, _, err := repo.CreateOrGet(ctx, repository.CreateLeadParams{
		DealerID:  uuid.New(),
		VehicleID: uuid.New(),
		BuyerID:   uuid.New(),
	})
	require.NoError(t, err)
	_, err = repo.AppendAction(ctx, repository.AppendActionParams{
		LeadID:     lead.ID,
		ActionType: domain.ActionView,
		OccurredAt: lastAction,
	})
	require.NoError(t, err)

	// score it right after the action so recency sits in the top band
	rec.now = lastAction.Add(time.Minute)
	after, err := rec.RecomputeDerived(ctx, lead.ID)
	require.NoError(t, err)
	require.Equal(t, 30, after.RecencyScore)
	return lead.ID
}

func newTestSweeper(repo *repository.MemoryRepository, rec *clockedRecomputer, calc *scoring.Calculator, now time.Time) *DecaySweeper {
	s := NewDecaySweeper(repo, rec, calc, logger.Nop())
	s.now = func() time.Time { return now }
	return s
}

func TestSweepRefreshesLapsedRecency(t *testing.T) {
	repo := repository.NewMemory()
	calc := scoring.NewCalculator(scoring.DefaultConfig())
	rec := &clockedRecomputer{repo: repo, calc: calc}

	stale := seedScoredLead(t, repo, rec, sweepBase.Add(-5*24*time.Hour))
	fresh := seedScoredLead(t, repo, rec, sweepBase.Add(-2*time.Hour))

	rec.now = sweepBase
	rec.calls = 0
	result, err := newTestSweeper(repo, rec, calc, sweepBase).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Visited)
	assert.Equal(t, 1, result.Refreshed)
	assert.Equal(t, 1, rec.calls)

	lead, err := repo.GetByID(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, 10, lead.RecencyScore)
	assert.Equal(t, 12, lead.Score)

	untouched, err := repo.GetByID(context.Background(), fresh)
	require.NoError(t, err)
	assert.Equal(t, 30, untouched.RecencyScore)
}

func TestSweepSkipsLeadsAlreadyInCurrentBand(t *testing.T) {
	repo := repository.NewMemory()
	calc := scoring.NewCalculator(scoring.DefaultConfig())
	rec := &clockedRecomputer{repo: repo, calc: calc}

	id := seedScoredLead(t, repo, rec, sweepBase.Add(-10*24*time.Hour))
	rec.now = sweepBase
	_, err := rec.RecomputeDerived(context.Background(), id)
	require.NoError(t, err)

	rec.calls = 0
	result, err := newTestSweeper(repo, rec, calc, sweepBase.Add(time.Hour)).Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Visited)
	assert.Equal(t, 1, result.Unchanged)
	assert.Zero(t, result.Refreshed)
	assert.Zero(t, rec.calls)
}

func TestSweepPagesThroughAllCandidates(t *testing.T) {
	repo := repository.NewMemory()
	calc := scoring.NewCalculator(scoring.DefaultConfig())
	rec := &clockedRecomputer{repo: repo, calc: calc}

	for range 7 {
		seedScoredLead(t, repo, rec, sweepBase.Add(-40*24*time.Hour))
	}

	rec.now = sweepBase
	sweeper := newTestSweeper(repo, rec, calc, sweepBase)
	sweeper.SetBatchSize(3)
	sweeper.SetConcurrency(1)

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, result.Visited)
	assert.Equal(t, 7, result.Refreshed)

	// leads at zero recency are no longer candidates
	again, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Zero(t, again.Visited)
}

func TestSweepCountsFailuresAndContinues(t *testing.T) {
	repo := repository.NewMemory()
	calc := scoring.NewCalculator(scoring.DefaultConfig())
	rec := &clockedRecomputer{repo: repo, calc: calc}

	bad := seedScoredLead(t, repo, rec, sweepBase.Add(-3*24*time.Hour-time.Hour))
	good := seedScoredLead(t, repo, rec, sweepBase.Add(-3*24*time.Hour-time.Hour))

	rec.now = sweepBase
	rec.fail = map[uuid.UUID]bool{bad: true}
	sweeper := newTestSweeper(repo, rec, calc, sweepBase)
	sweeper.SetConcurrency(1)

	result, err := sweeper.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Visited)
	assert.Equal(t, 1, result.Refreshed)
	assert.Equal(t, 1, result.Failed)

	lead, err := repo.GetByID(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, 10, lead.RecencyScore)
}

func TestSweepStopsOnCancelledContext(t *testing.T) {
	repo := repository.NewMemory()
	calc := scoring.NewCalculator(scoring.DefaultConfig())
	rec := &clockedRecomputer{repo: repo, calc: calc}
	seedScoredLead(t, repo, rec, sweepBase.Add(-5*24*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestSweeper(repo, rec, calc, sweepBase).Sweep(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCronManagerRejectsBadSchedule(t *testing.T) {
	calc := scoring.NewCalculator(scoring.DefaultConfig())
	sweeper := NewDecaySweeper(repository.NewMemory(), &clockedRecomputer{}, calc, logger.Nop())

	assert.Error(t, NewCronManager(sweeper, "not a schedule", logger.Nop()).SetupJobs())
	assert.NoError(t, NewCronManager(sweeper, "@every 15m", logger.Nop()).SetupJobs())
}
