package jobs

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aprovado-edu/aprovado/internal/plan"
)

type stubReweighter struct {
	calls int
	err   error
}

func (s *stubReweighter) Reweight(ctx context.Context, userID, attemptID uuid.UUID) (*plan.Plan, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &plan.Plan{ID: uuid.New(), UserID: userID}, nil
}

func TestPlanReweightHandle(t *testing.T) {
	service := &stubReweighter{}
	job := NewPlanReweightJob(service, slog.New(slog.DiscardHandler))

	task, err := NewPlanReweightTask(PlanReweightPayload{UserID: uuid.New(), AttemptID: uuid.New()})
	require.NoError(t, err)

	require.NoError(t, job.Handle(context.Background(), task))
	assert.Equal(t, 1, service.calls)
}

func TestPlanReweightMalformedPayloadIsDropped(t *testing.T) {
	service := &stubReweighter{}
	job := NewPlanReweightJob(service, slog.New(slog.DiscardHandler))

	err := job.Handle(context.Background(), asynq.NewTask(TaskPlanReweight, []byte("{broken")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Equal(t, 0, service.calls)
}

func TestPlanReweightNoDiagnosticIsDropped(t *testing.T) {
	service := &stubReweighter{err: plan.ErrNoDiagnostic}
	job := NewPlanReweightJob(service, slog.New(slog.DiscardHandler))

	task, err := NewPlanReweightTask(PlanReweightPayload{UserID: uuid.New(), AttemptID: uuid.New()})
	require.NoError(t, err)

	assert.ErrorIs(t, job.Handle(context.Background(), task), asynq.SkipRetry)
}

func TestPlanReweightTransientErrorRetries(t *testing.T) {
	service := &stubReweighter{err: errors.New("db timeout")}
	job := NewPlanReweightJob(service, slog.New(slog.DiscardHandler))

	task, err := NewPlanReweightTask(PlanReweightPayload{UserID: uuid.New(), AttemptID: uuid.New()})
	require.NoError(t, err)

	err = job.Handle(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry, "transient errors must stay retryable")
}
