package admin

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Service answers admin checks for authenticated users.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Check resolves the admin status of userID. A repository error is logged
// and resolved to StatusNotAdmin: denying access is always the safe answer,
// and the caller is already authenticated so this is not a 500-worthy
// condition at the wire level.
func (s *Service) Check(ctx context.Context, userID uuid.UUID) Status {
	isAdmin, err := s.repo.IsAdministrator(ctx, userID)
	if err != nil {
		if s.logger != nil {
			s.logger.Error("admin lookup", slog.String("user_id", userID.String()), slog.Any("error", err))
		}
		return StatusNotAdmin
	}
	if isAdmin {
		return StatusAdmin
	}
	return StatusNotAdmin
}
