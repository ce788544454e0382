package jobs

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskPlanReweight re-weights a student's study plan after a simulado.
	TaskPlanReweight = "plan:reweight"
)

// PlanReweightPayload identifies the attempt that triggers the re-weight.
type PlanReweightPayload struct {
	UserID    uuid.UUID `json:"user_id"`
	AttemptID uuid.UUID `json:"attempt_id"`
}

// NewPlanReweightTask constructs an Asynq task.
func NewPlanReweightTask(payload PlanReweightPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPlanReweight, data), nil
}

// Client submits jobs to the queue.
type Client struct {
	client *asynq.Client
}

// NewClient constructs an Asynq client.
func NewClient(redisOpts asynq.RedisClientOpt) *Client {
	return &Client{client: asynq.NewClient(redisOpts)}
}

// EnqueuePlanReweight enqueues a plan re-weight task.
func (c *Client) EnqueuePlanReweight(ctx context.Context, userID, attemptID uuid.UUID) error {
	task, err := NewPlanReweightTask(PlanReweightPayload{UserID: userID, AttemptID: attemptID})
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault), asynq.MaxRetry(3))
	return err
}

// Close releases client resources.
func (c *Client) Close() error {
	return c.client.Close()
}
