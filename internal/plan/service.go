package plan

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrNoDiagnostic indicates the student has not answered the diagnostic
// questionnaire yet, so there is nothing to plan from.
var ErrNoDiagnostic = errors.New("plan: no diagnostic answers")

const (
	planWeeks        = 4
	weeklyHourBudget = 20
	basePriority     = 1
	wrongAnswerBoost = 2
)

// Service generates and re-weights study plans.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Generate builds a plan from the student's diagnostic answers. Each wrong
// answer raises the subject's priority by two; a self-reported difficulty
// above the midpoint adds the excess. Weekly hours are then split across
// subjects proportionally to priority, and the result replaces any
// previous plan.
func (s *Service) Generate(ctx context.Context, userID uuid.UUID) (*Plan, error) {
	answers, err := s.repo.ListDiagnosticAnswers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, ErrNoDiagnostic
	}
	subjects, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	priorities := prioritiesFromDiagnostic(answers)
	generated := s.assemble(userID, subjects, priorities)

	if err := s.repo.ReplacePlan(ctx, generated); err != nil {
		return nil, err
	}
	return generated, nil
}

// Reweight raises priorities for the subjects a finished simulado exposed
// as weak and regenerates the plan. Subjects with no new mistakes keep
// their diagnostic priority.
func (s *Service) Reweight(ctx context.Context, userID uuid.UUID, attemptID uuid.UUID) (*Plan, error) {
	answers, err := s.repo.ListDiagnosticAnswers(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(answers) == 0 {
		return nil, ErrNoDiagnostic
	}
	mistakes, err := s.repo.ListAttemptMistakes(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.repo.ListSubjects(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[int64]struct{}, len(subjects))
	for _, sub := range subjects {
		known[sub.ID] = struct{}{}
	}

	priorities := prioritiesFromDiagnostic(answers)
	for _, m := range mistakes {
		// Mistakes referencing a subject that left the catalog are
		// dropped; a subject without a diagnostic answer starts from
		// the base priority.
		if _, ok := known[m.SubjectID]; !ok {
			continue
		}
		if _, ok := priorities[m.SubjectID]; !ok {
			priorities[m.SubjectID] = basePriority
		}
		priorities[m.SubjectID] += m.Count
	}
	generated := s.assemble(userID, subjects, priorities)

	if err := s.repo.ReplacePlan(ctx, generated); err != nil {
		return nil, err
	}
	return generated, nil
}

// Latest returns the student's current plan.
func (s *Service) Latest(ctx context.Context, userID uuid.UUID) (*Plan, error) {
	return s.repo.LatestPlan(ctx, userID)
}

func prioritiesFromDiagnostic(answers []DiagnosticAnswer) map[int64]int {
	priorities := make(map[int64]int)
	for _, a := range answers {
		if _, ok := priorities[a.SubjectID]; !ok {
			priorities[a.SubjectID] = basePriority
		}
		if !a.Correct {
			priorities[a.SubjectID] += wrongAnswerBoost
		}
		if a.Difficulty > 3 {
			priorities[a.SubjectID] += a.Difficulty - 3
		}
	}
	return priorities
}

func (s *Service) assemble(userID uuid.UUID, subjects []Subject, priorities map[int64]int) *Plan {
	names := make(map[int64]string, len(subjects))
	for _, sub := range subjects {
		names[sub.ID] = sub.Name
	}

	type weighted struct {
		subjectID int64
		priority  int
	}
	ranked := make([]weighted, 0, len(priorities))
	total := 0
	for id, p := range priorities {
		ranked = append(ranked, weighted{subjectID: id, priority: p})
		total += p
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].priority != ranked[j].priority {
			return ranked[i].priority > ranked[j].priority
		}
		return names[ranked[i].subjectID] < names[ranked[j].subjectID]
	})

	blocks := make([]Block, 0, len(ranked)*planWeeks)
	for week := 1; week <= planWeeks; week++ {
		for _, w := range ranked {
			hours := weeklyHourBudget * w.priority / total
			if hours < 1 {
				hours = 1
			}
			blocks = append(blocks, Block{
				SubjectID: w.subjectID,
				Subject:   names[w.subjectID],
				Week:      week,
				Hours:     hours,
				Priority:  w.priority,
			})
		}
	}

	return &Plan{
		ID:          uuid.New(),
		UserID:      userID,
		Weeks:       planWeeks,
		Blocks:      blocks,
		GeneratedAt: s.now().UTC(),
	}
}
