package simulado

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one student's finished pass over a practice exam.
type Attempt struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	SimuladoID  int64
	Correct     int
	Total       int
	CompletedAt time.Time
}

// SubjectMistakes counts wrong answers per subject within an attempt.
type SubjectMistakes struct {
	SubjectID int64
	Count     int
}
