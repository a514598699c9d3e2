// File: internal/domain/model/revenue.go
package model

import "time"

// RevenueSplit is the pure outcome of dividing a settled amount.
type RevenueSplit struct {
	Platform  int64
	Mentor    int64
	Affiliate int64
}

func (s RevenueSplit) Total() int64 { return s.Platform + s.Mentor + s.Affiliate }

// RevenueDistribution persists the split of one transaction. At most one
// row exists per transaction; once written it is never recomputed.
type RevenueDistribution struct {
	TransactionID   string
	PlatformAmount  int64
	MentorAmount    int64
	MentorID        *string
	AffiliateAmount int64
	AffiliateID     *string
	Total           int64
	CreatedAt       time.Time
}
