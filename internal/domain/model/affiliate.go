// File: internal/domain/model/affiliate.go
package model

import "time"

type ConversionStatus string

const (
	ConversionApproved ConversionStatus = "approved"
	ConversionPaidOut  ConversionStatus = "paid_out"
)

// AffiliateConversion is the commission earned by an affiliate for one
// settled transaction. Unique per (affiliate, transaction); the amount
// is immutable once written.
type AffiliateConversion struct {
	ID               string // UUID
	AffiliateID      string
	TransactionID    string
	CommissionAmount int64
	Status           ConversionStatus
	PaidOutAt        *time.Time
	CreatedAt        time.Time
}
