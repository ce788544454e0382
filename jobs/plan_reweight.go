package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/aprovado-edu/aprovado/internal/plan"
)

// Reweighter regenerates a study plan from a simulado attempt. Implemented
// by the plan service.
type Reweighter interface {
	Reweight(ctx context.Context, userID, attemptID uuid.UUID) (*plan.Plan, error)
}

// PlanReweightJob handles TaskPlanReweight tasks.
type PlanReweightJob struct {
	service Reweighter
	logger  *slog.Logger
}

// NewPlanReweightJob constructs the job handler.
func NewPlanReweightJob(service Reweighter, logger *slog.Logger) *PlanReweightJob {
	return &PlanReweightJob{service: service, logger: logger}
}

// Handle processes one task. A malformed payload or a student without a
// diagnostic is dropped instead of retried: neither can succeed later.
func (j *PlanReweightJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload PlanReweightPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if _, err := j.service.Reweight(ctx, payload.UserID, payload.AttemptID); err != nil {
		if errors.Is(err, plan.ErrNoDiagnostic) {
			j.logger.Warn("reweight skipped, no diagnostic",
				slog.String("user_id", payload.UserID.String()))
			return asynq.SkipRetry
		}
		return err
	}
	j.logger.Info("plan reweighted",
		slog.String("user_id", payload.UserID.String()),
		slog.String("attempt_id", payload.AttemptID.String()))
	return nil
}
