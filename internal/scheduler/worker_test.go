package scheduler

import (
	"context"
	"errors"
	"testing"

	"lead_engine_backend/internal/leads/repository"
	"lead_engine_backend/platform/apperr"
	"lead_engine_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecomputer struct {
	err  error
	seen []uuid.UUID
}

func (s *stubRecomputer) RecomputeDerived(_ context.Context, id uuid.UUID) (repository.Lead, error) {
	s.seen = append(s.seen, id)
	return repository.Lead{ID: id}, s.err
}

func newTestWorker(r Recomputer) *Worker {
	return &Worker{recomputer: r, log: logger.Nop()}
}

func TestRecomputeTaskRoundTrip(t *testing.T) {
	id := uuid.New()
	task, err := NewLeadRecomputeTask(LeadRecomputePayload{LeadID: id.String()})
	require.NoError(t, err)
	assert.Equal(t, TaskLeadRecompute, task.Type())

	payload, err := ParseLeadRecomputePayload(task)
	require.NoError(t, err)
	assert.Equal(t, id.String(), payload.LeadID)
}

func TestHandleLeadRecomputeCallsRecomputer(t *testing.T) {
	stub := &stubRecomputer{}
	id := uuid.New()
	task, err := NewLeadRecomputeTask(LeadRecomputePayload{LeadID: id.String()})
	require.NoError(t, err)

	require.NoError(t, newTestWorker(stub).handleLeadRecompute(context.Background(), task))
	assert.Equal(t, []uuid.UUID{id}, stub.seen)
}

func TestHandleLeadRecomputeSkipsRetryForMissingLead(t *testing.T) {
	stub := &stubRecomputer{err: apperr.NotFound("lead not found")}
	task, err := NewLeadRecomputeTask(LeadRecomputePayload{LeadID: uuid.NewString()})
	require.NoError(t, err)

	err = newTestWorker(stub).handleLeadRecompute(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleLeadRecomputeSkipsRetryForMalformedPayload(t *testing.T) {
	stub := &stubRecomputer{}

	err := newTestWorker(stub).handleLeadRecompute(context.Background(), asynq.NewTask(TaskLeadRecompute, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, _ := NewLeadRecomputeTask(LeadRecomputePayload{LeadID: "not-a-uuid"})
	err = newTestWorker(stub).handleLeadRecompute(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, stub.seen)
}

func TestHandleLeadRecomputeReturnsTransientErrors(t *testing.T) {
	transient := errors.New("connection reset")
	stub := &stubRecomputer{err: transient}
	task, err := NewLeadRecomputeTask(LeadRecomputePayload{LeadID: uuid.NewString()})
	require.NoError(t, err)

	err = newTestWorker(stub).handleLeadRecompute(context.Background(), task)
	assert.ErrorIs(t, err, transient)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestNilClientEnqueueIsNoop(t *testing.T) {
	var c *Client
	assert.NoError(t, c.EnqueueLeadRecompute(context.Background(), uuid.New()))
	assert.NoError(t, c.Close())
}
