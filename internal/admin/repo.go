package admin

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads the administrators relation.
type Repository interface {
	IsAdministrator(ctx context.Context, userID uuid.UUID) (bool, error)
}

// PGRepository implements Repository on PostgreSQL. A user id appears at
// most once in the relation; absence means not an administrator.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// IsAdministrator reports whether userID is listed in the administrators
// table. No rows is a legitimate outcome, not an error.
func (r *PGRepository) IsAdministrator(ctx context.Context, userID uuid.UUID) (bool, error) {
	const query = `SELECT user_id FROM administrators WHERE user_id = $1`
	var found uuid.UUID
	err := r.pool.QueryRow(ctx, query, userID).Scan(&found)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

var _ Repository = (*PGRepository)(nil)
