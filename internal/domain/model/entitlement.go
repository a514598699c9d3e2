// File: internal/domain/model/entitlement.go
package model

import "time"

type SubjectKind string

const (
	SubjectMembership SubjectKind = "membership"
	SubjectCourse     SubjectKind = "course"
	SubjectProduct    SubjectKind = "product"
	SubjectGroup      SubjectKind = "group"
)

// Entitlement is an access right derived from a settled transaction.
// Memberships are exclusive per user (a new one deactivates the old);
// course, product and group grants are additive and deduplicated by
// (user, subject).
type Entitlement struct {
	ID            string // UUID
	UserID        string
	SubjectKind   SubjectKind
	SubjectID     string
	TransactionID string
	StartAt       time.Time
	EndAt         *time.Time // nil for grants without a validity window
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Expired reports whether the entitlement has a window and it has passed.
func (e *Entitlement) Expired(now time.Time) bool {
	return e.EndAt != nil && now.After(*e.EndAt)
}
