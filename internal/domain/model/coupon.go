// File: internal/domain/model/coupon.go
package model

import "time"

type CouponType string

const (
	CouponFlat    CouponType = "flat"
	CouponPercent CouponType = "percent"
)

type Coupon struct {
	ID         string
	Code       string
	Type       CouponType
	Value      int64 // flat amount, or percent when Type is percent
	UsageLimit int   // 0 means unlimited
	UsedCount  int
	ExpiresAt  *time.Time
	Active     bool
}

// Usable reports whether the coupon can still be applied at checkout.
// The final consumption check happens again at settlement with a
// guarded counter; this is only the optimistic front gate.
func (c *Coupon) Usable(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return c.UsageLimit <= 0 || c.UsedCount < c.UsageLimit
}

// Discount computes the discount for amount, clamped to [0, amount].
func (c *Coupon) Discount(amount int64) int64 {
	var d int64
	switch c.Type {
	case CouponPercent:
		d = amount * c.Value / 100
	case CouponFlat:
		d = c.Value
	}
	if d > amount {
		d = amount
	}
	if d < 0 {
		d = 0
	}
	return d
}

// CouponUsage marks that a coupon was consumed by a transaction. The
// unique (coupon, transaction) pair is what makes consumption at
// settlement idempotent.
type CouponUsage struct {
	CouponID      string
	TransactionID string
	UsedAt        time.Time
}
