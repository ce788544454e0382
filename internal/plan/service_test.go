package plan

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	subjects []Subject
	answers  map[uuid.UUID][]DiagnosticAnswer
	mistakes map[uuid.UUID][]Mistake
	saved    *Plan
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		subjects: []Subject{
			{ID: 1, Name: "Matemática", Area: "exatas"},
			{ID: 2, Name: "Português", Area: "linguagens"},
			{ID: 3, Name: "História", Area: "humanas"},
		},
		answers:  make(map[uuid.UUID][]DiagnosticAnswer),
		mistakes: make(map[uuid.UUID][]Mistake),
	}
}

func (m *mockRepository) ListSubjects(ctx context.Context) ([]Subject, error) {
	return m.subjects, nil
}

func (m *mockRepository) ListDiagnosticAnswers(ctx context.Context, userID uuid.UUID) ([]DiagnosticAnswer, error) {
	return m.answers[userID], nil
}

func (m *mockRepository) ListAttemptMistakes(ctx context.Context, attemptID uuid.UUID) ([]Mistake, error) {
	return m.mistakes[attemptID], nil
}

func (m *mockRepository) ReplacePlan(ctx context.Context, p *Plan) error {
	m.saved = p
	return nil
}

func (m *mockRepository) LatestPlan(ctx context.Context, userID uuid.UUID) (*Plan, error) {
	if m.saved == nil || m.saved.UserID != userID {
		return nil, ErrNotFound
	}
	return m.saved, nil
}

func blocksForWeek(p *Plan, week int) []Block {
	var out []Block
	for _, b := range p.Blocks {
		if b.Week == week {
			out = append(out, b)
		}
	}
	return out
}

func TestGenerateRequiresDiagnostic(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	_, err := svc.Generate(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNoDiagnostic)
}

func TestGeneratePrioritizesWrongAndHardSubjects(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	repo.answers[userID] = []DiagnosticAnswer{
		// Matemática: two wrong answers, hard -> 1 + 2 + 2 + (5-3) = 7
		{SubjectID: 1, Correct: false, Difficulty: 5},
		{SubjectID: 1, Correct: false, Difficulty: 5},
		// Português: one wrong -> 1 + 2 = 3
		{SubjectID: 2, Correct: false, Difficulty: 2},
		// História: all correct, easy -> 1
		{SubjectID: 3, Correct: true, Difficulty: 1},
	}
	svc := NewService(repo)

	p, err := svc.Generate(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, repo.saved, "plan must be persisted")
	assert.Equal(t, planWeeks, p.Weeks)

	week1 := blocksForWeek(p, 1)
	require.Len(t, week1, 3)
	assert.Equal(t, "Matemática", week1[0].Subject)
	assert.Equal(t, 7, week1[0].Priority)
	assert.Equal(t, "Português", week1[1].Subject)
	assert.Equal(t, "História", week1[2].Subject)
	assert.Greater(t, week1[0].Hours, week1[2].Hours, "weak subjects get more hours")
}

func TestGenerateDifficultyAtMidpointAddsNothing(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	repo.answers[userID] = []DiagnosticAnswer{
		{SubjectID: 1, Correct: true, Difficulty: 3},
	}
	svc := NewService(repo)

	p, err := svc.Generate(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, p.Blocks[0].Priority)
}

func TestGenerateEveryBlockGetsAtLeastOneHour(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	repo.answers[userID] = []DiagnosticAnswer{
		{SubjectID: 1, Correct: false, Difficulty: 5},
		{SubjectID: 1, Correct: false, Difficulty: 5},
		{SubjectID: 1, Correct: false, Difficulty: 5},
		{SubjectID: 1, Correct: false, Difficulty: 5},
		{SubjectID: 1, Correct: false, Difficulty: 5},
		{SubjectID: 1, Correct: false, Difficulty: 5},
		{SubjectID: 1, Correct: false, Difficulty: 5},
		{SubjectID: 3, Correct: true, Difficulty: 1},
	}
	svc := NewService(repo)

	p, err := svc.Generate(context.Background(), userID)
	require.NoError(t, err)
	for _, b := range p.Blocks {
		assert.GreaterOrEqual(t, b.Hours, 1)
	}
}

func TestReweightRaisesMistakenSubjects(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	attemptID := uuid.New()
	repo.answers[userID] = []DiagnosticAnswer{
		{SubjectID: 1, Correct: true, Difficulty: 2},
		{SubjectID: 2, Correct: true, Difficulty: 2},
	}
	repo.mistakes[attemptID] = []Mistake{
		{SubjectID: 2, Count: 5},
	}
	svc := NewService(repo)

	p, err := svc.Reweight(context.Background(), userID, attemptID)
	require.NoError(t, err)

	week1 := blocksForWeek(p, 1)
	require.Len(t, week1, 2)
	assert.Equal(t, "Português", week1[0].Subject, "simulado mistakes move the subject up")
	assert.Equal(t, 6, week1[0].Priority)
	assert.Equal(t, 1, week1[1].Priority)
}

func TestLatestReturnsPersistedPlan(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	repo.answers[userID] = []DiagnosticAnswer{{SubjectID: 1, Correct: false, Difficulty: 4}}
	svc := NewService(repo)

	generated, err := svc.Generate(context.Background(), userID)
	require.NoError(t, err)

	latest, err := svc.Latest(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, generated.ID, latest.ID)

	_, err = svc.Latest(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReweightIgnoresSubjectsOutsideCatalog(t *testing.T) {
	repo := newMockRepository()
	userID := uuid.New()
	attemptID := uuid.New()
	repo.answers[userID] = []DiagnosticAnswer{
		{SubjectID: 1, Correct: true, Difficulty: 2},
	}
	repo.mistakes[attemptID] = []Mistake{
		// História has no diagnostic answer but is in the catalog.
		{SubjectID: 3, Count: 2},
		// Subject 99 is not in the catalog at all.
		{SubjectID: 99, Count: 5},
	}

	svc := NewService(repo)
	p, err := svc.Reweight(context.Background(), userID, attemptID)
	require.NoError(t, err)

	week := blocksForWeek(p, 1)
	require.Len(t, week, 2)
	for _, b := range week {
		assert.NotEmpty(t, b.Subject, "every block must carry a catalog name")
		assert.NotEqual(t, int64(99), b.SubjectID)
	}
	// História starts from the base priority before the mistakes land.
	assert.Equal(t, "História", week[0].Subject)
	assert.Equal(t, basePriority+2, week[0].Priority)
}
