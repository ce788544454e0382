package plan

import (
	"time"

	"github.com/google/uuid"
)

// Subject is one entry of the vestibular subject catalog.
type Subject struct {
	ID   int64
	Name string
	Area string
}

// DiagnosticAnswer is a student's answer to one diagnostic question,
// together with the self-reported difficulty (1 easiest to 5 hardest) of
// the subject it belongs to.
type DiagnosticAnswer struct {
	SubjectID  int64
	Correct    bool
	Difficulty int
}

// Block is one weekly study slot of a generated plan.
type Block struct {
	SubjectID int64
	Subject   string
	Week      int
	Hours     int
	Priority  int
}

// Plan is a generated study schedule. Regeneration replaces the previous
// plan wholesale; there is no partial update.
type Plan struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Weeks       int
	Blocks      []Block
	GeneratedAt time.Time
}

// Mistake aggregates wrong answers per subject from a finished simulado.
type Mistake struct {
	SubjectID int64
	Count     int
}
