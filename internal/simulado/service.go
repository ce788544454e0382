package simulado

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidScore indicates the reported score does not add up.
var ErrInvalidScore = errors.New("simulado: invalid score")

// Enqueuer submits the plan-reweight job after an attempt is recorded.
// Implemented by the jobs client.
type Enqueuer interface {
	EnqueuePlanReweight(ctx context.Context, userID, attemptID uuid.UUID) error
}

// Service records finished simulados and triggers plan re-weighting.
type Service struct {
	repo     Repository
	enqueuer Enqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, enqueuer: enqueuer, logger: logger, now: time.Now}
}

// Complete persists the attempt with its per-subject mistakes and enqueues
// the background re-weight. A failed enqueue does not fail the request: the
// score is already durable, and the plan catches up on the next attempt.
func (s *Service) Complete(ctx context.Context, userID uuid.UUID, simuladoID int64, correct, total int, mistakes []SubjectMistakes) (*Attempt, error) {
	if total <= 0 || correct < 0 || correct > total {
		return nil, ErrInvalidScore
	}
	wrong := 0
	for _, m := range mistakes {
		if m.Count < 0 {
			return nil, ErrInvalidScore
		}
		wrong += m.Count
	}
	if wrong > total-correct {
		return nil, fmt.Errorf("%w: %d mistakes reported for %d wrong answers", ErrInvalidScore, wrong, total-correct)
	}

	attempt := &Attempt{
		ID:          uuid.New(),
		UserID:      userID,
		SimuladoID:  simuladoID,
		Correct:     correct,
		Total:       total,
		CompletedAt: s.now().UTC(),
	}
	if err := s.repo.CreateAttempt(ctx, attempt, mistakes); err != nil {
		return nil, err
	}

	if err := s.enqueuer.EnqueuePlanReweight(ctx, userID, attempt.ID); err != nil {
		s.logger.Warn("enqueue plan reweight",
			slog.String("attempt_id", attempt.ID.String()),
			slog.Any("error", err))
	}
	return attempt, nil
}

// History lists the student's attempts, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]Attempt, error) {
	return s.repo.ListAttempts(ctx, userID)
}
