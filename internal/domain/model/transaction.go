// File: internal/domain/model/transaction.go
package model

import "time"

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "pending"
	TransactionStatusSettled TransactionStatus = "settled"
	TransactionStatusFailed  TransactionStatus = "failed"
)

// Terminal reports whether the status admits no further transition.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusSettled || s == TransactionStatusFailed
}

// Transaction records a single purchase attempt. It is the aggregate
// root of the commerce flow: entitlements, revenue rows, affiliate
// conversions and coupon usage are all keyed by its ID. The status
// only moves forward (pending -> settled | failed) and the transition
// itself is done with a conditional UPDATE in the repository, never by
// mutating this struct and saving it back.
type Transaction struct {
	ID             string // ULID, sortable by creation time
	UserID         string
	Kind           PurchaseKind
	Payload        PurchasePayload
	Amount         int64 // final charged amount after discount
	OriginalAmount int64
	DiscountAmount int64
	CouponID       *string
	AffiliateID    *string
	ProviderRef    *string // gateway invoice id, set once an invoice exists
	PayURL         string
	Status         TransactionStatus
	SettledAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
