// Package admin decides whether an authenticated user holds administrator
// privileges. Every ambiguous or failed outcome resolves to not-admin.
package admin

import (
	"time"

	"github.com/google/uuid"
)

// Status is the tri-state outcome of an admin check. The zero value is
// StatusUnknown, which every consumer must treat as not-admin, so a missed
// assignment can never grant access.
type Status int

const (
	StatusUnknown Status = iota
	StatusNotAdmin
	StatusAdmin
)

// IsAdmin reports whether the status grants administrator access.
func (s Status) IsAdmin() bool { return s == StatusAdmin }

func (s Status) String() string {
	switch s {
	case StatusAdmin:
		return "admin"
	case StatusNotAdmin:
		return "not_admin"
	default:
		return "unknown"
	}
}

// Administrator is one row of the administrators relation. Rows are managed
// out-of-band by database administration; this module only reads them.
type Administrator struct {
	UserID    uuid.UUID
	GrantedAt time.Time
}
