package simulado

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence for simulado attempts.
type Repository interface {
	CreateAttempt(ctx context.Context, attempt *Attempt, mistakes []SubjectMistakes) error
	ListAttempts(ctx context.Context, userID uuid.UUID) ([]Attempt, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateAttempt inserts the attempt and its mistake rows in one
// transaction.
func (r *PGRepository) CreateAttempt(ctx context.Context, attempt *Attempt, mistakes []SubjectMistakes) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const insertAttempt = `
		INSERT INTO simulado_attempts (id, user_id, simulado_id, correct, total, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.Exec(ctx, insertAttempt,
		attempt.ID, attempt.UserID, attempt.SimuladoID,
		attempt.Correct, attempt.Total, attempt.CompletedAt); err != nil {
		return err
	}

	const insertMistake = `
		INSERT INTO simulado_mistakes (attempt_id, subject_id, mistake_count)
		VALUES ($1, $2, $3)`
	for _, m := range mistakes {
		if m.Count == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, insertMistake, attempt.ID, m.SubjectID, m.Count); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ListAttempts returns attempts for a student, newest first.
func (r *PGRepository) ListAttempts(ctx context.Context, userID uuid.UUID) ([]Attempt, error) {
	const query = `
		SELECT id, user_id, simulado_id, correct, total, completed_at
		FROM simulado_attempts
		WHERE user_id = $1
		ORDER BY completed_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var a Attempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.SimuladoID, &a.Correct, &a.Total, &a.CompletedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
