// File: internal/domain/model/challenge.go
package model

import "time"

type ChallengeTarget string

const (
	TargetSalesCount  ChallengeTarget = "sales_count"
	TargetRevenue     ChallengeTarget = "revenue"
	TargetConversions ChallengeTarget = "conversions"
)

// Challenge is an affiliate incentive with a numeric goal over a date
// window, optionally scoped to a single catalog subject.
type Challenge struct {
	ID          string
	Title       string
	TargetType  ChallengeTarget
	TargetValue int64
	SubjectKind *SubjectKind // nil means any sale counts
	SubjectID   *string
	StartDate   time.Time
	EndDate     time.Time
	IsActive    bool
	Reward      string
}

func (c *Challenge) ActiveAt(t time.Time) bool {
	return c.IsActive && !t.Before(c.StartDate) && !t.After(c.EndDate)
}

// Matches reports whether a sale of the given subject counts toward
// this challenge.
func (c *Challenge) Matches(kind SubjectKind, subjectID string) bool {
	if c.SubjectKind == nil {
		return true
	}
	if *c.SubjectKind != kind {
		return false
	}
	return c.SubjectID == nil || *c.SubjectID == subjectID
}

type RewardStatus string

const (
	RewardNone     RewardStatus = "none"
	RewardPending  RewardStatus = "pending"
	RewardApproved RewardStatus = "approved"
	RewardRejected RewardStatus = "rejected"
	RewardClaimed  RewardStatus = "claimed"
)

// CanTransitionTo encodes the reward workflow: pending is set once on
// completion, an admin approves or rejects, an approved reward may be
// claimed. Everything else is refused.
func (s RewardStatus) CanTransitionTo(next RewardStatus) bool {
	switch s {
	case RewardPending:
		return next == RewardApproved || next == RewardRejected
	case RewardApproved:
		return next == RewardClaimed
	}
	return false
}

// ChallengeProgress is the running counter of one affiliate in one
// challenge. Current never decreases; Completed flips to true exactly
// once when Current reaches the target.
type ChallengeProgress struct {
	ChallengeID  string
	AffiliateID  string
	Current      int64
	Completed    bool
	CompletedAt  *time.Time
	RewardStatus RewardStatus
	UpdatedAt    time.Time
}

// ProgressSignal is one settled sale's contribution to the metrics a
// challenge can track. TransactionID identifies the sale: each
// transaction counts toward a challenge at most once, however many
// times the signal is replayed.
type ProgressSignal struct {
	TransactionID string
	SubjectKind   SubjectKind
	SubjectID     string
	Sales         int64
	Revenue       int64
	Conversions   int64
}

func (s ProgressSignal) Contribution(target ChallengeTarget) int64 {
	switch target {
	case TargetSalesCount:
		return s.Sales
	case TargetRevenue:
		return s.Revenue
	case TargetConversions:
		return s.Conversions
	}
	return 0
}

// ProgressUpdate reports the effect of one signal on one challenge.
type ProgressUpdate struct {
	ChallengeID    string
	Total          int64
	Completed      bool
	NewlyCompleted bool
}
