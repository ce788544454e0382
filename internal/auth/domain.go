package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered student or staff account.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    uuid.UUID
	Email string
}
