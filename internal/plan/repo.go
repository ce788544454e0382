package plan

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the student has no generated plan yet.
var ErrNotFound = errors.New("plan: not found")

// Repository defines persistence for study plans.
type Repository interface {
	ListSubjects(ctx context.Context) ([]Subject, error)
	ListDiagnosticAnswers(ctx context.Context, userID uuid.UUID) ([]DiagnosticAnswer, error)
	ListAttemptMistakes(ctx context.Context, attemptID uuid.UUID) ([]Mistake, error)
	ReplacePlan(ctx context.Context, p *Plan) error
	LatestPlan(ctx context.Context, userID uuid.UUID) (*Plan, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListSubjects returns the subject catalog ordered by name.
func (r *PGRepository) ListSubjects(ctx context.Context) ([]Subject, error) {
	const query = `SELECT id, name, area FROM subjects ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subjects []Subject
	for rows.Next() {
		var s Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Area); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

// ListDiagnosticAnswers returns the student's questionnaire answers.
func (r *PGRepository) ListDiagnosticAnswers(ctx context.Context, userID uuid.UUID) ([]DiagnosticAnswer, error) {
	const query = `
		SELECT subject_id, correct, difficulty
		FROM diagnostic_answers
		WHERE user_id = $1`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []DiagnosticAnswer
	for rows.Next() {
		var a DiagnosticAnswer
		if err := rows.Scan(&a.SubjectID, &a.Correct, &a.Difficulty); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

// ListAttemptMistakes aggregates wrong answers per subject for one attempt.
func (r *PGRepository) ListAttemptMistakes(ctx context.Context, attemptID uuid.UUID) ([]Mistake, error) {
	const query = `
		SELECT subject_id, mistake_count
		FROM simulado_mistakes
		WHERE attempt_id = $1`
	rows, err := r.pool.Query(ctx, query, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var mistakes []Mistake
	for rows.Next() {
		var m Mistake
		if err := rows.Scan(&m.SubjectID, &m.Count); err != nil {
			return nil, err
		}
		mistakes = append(mistakes, m)
	}
	return mistakes, rows.Err()
}

// ReplacePlan deletes the student's previous plan and inserts the new one
// atomically.
func (r *PGRepository) ReplacePlan(ctx context.Context, p *Plan) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM study_plans WHERE user_id = $1`, p.UserID); err != nil {
		return err
	}
	const insertPlan = `
		INSERT INTO study_plans (id, user_id, weeks, generated_at)
		VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insertPlan, p.ID, p.UserID, p.Weeks, p.GeneratedAt); err != nil {
		return err
	}
	const insertBlock = `
		INSERT INTO study_plan_blocks (plan_id, subject_id, week, hours, priority)
		VALUES ($1, $2, $3, $4, $5)`
	for _, b := range p.Blocks {
		if _, err := tx.Exec(ctx, insertBlock, p.ID, b.SubjectID, b.Week, b.Hours, b.Priority); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// LatestPlan loads the student's current plan with its blocks.
func (r *PGRepository) LatestPlan(ctx context.Context, userID uuid.UUID) (*Plan, error) {
	const planQuery = `
		SELECT id, user_id, weeks, generated_at
		FROM study_plans
		WHERE user_id = $1
		ORDER BY generated_at DESC
		LIMIT 1`
	var p Plan
	err := r.pool.QueryRow(ctx, planQuery, userID).Scan(&p.ID, &p.UserID, &p.Weeks, &p.GeneratedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	const blockQuery = `
		SELECT b.subject_id, s.name, b.week, b.hours, b.priority
		FROM study_plan_blocks b
		JOIN subjects s ON s.id = b.subject_id
		WHERE b.plan_id = $1
		ORDER BY b.week, b.priority DESC, s.name`
	rows, err := r.pool.Query(ctx, blockQuery, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var b Block
		if err := rows.Scan(&b.SubjectID, &b.Subject, &b.Week, &b.Hours, &b.Priority); err != nil {
			return nil, err
		}
		p.Blocks = append(p.Blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

var _ Repository = (*PGRepository)(nil)
