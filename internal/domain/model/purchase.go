// File: internal/domain/model/purchase.go
package model

import "time"

type PurchaseKind string

const (
	PurchaseKindMembership PurchaseKind = "membership"
	PurchaseKindCourse     PurchaseKind = "course"
	PurchaseKindProduct    PurchaseKind = "product"
)

func (k PurchaseKind) Valid() bool {
	switch k {
	case PurchaseKindMembership, PurchaseKindCourse, PurchaseKindProduct:
		return true
	}
	return false
}

// Subject maps a purchase kind to the entitlement subject it grants.
func (k PurchaseKind) Subject() SubjectKind {
	switch k {
	case PurchaseKindMembership:
		return SubjectMembership
	case PurchaseKindCourse:
		return SubjectCourse
	default:
		return SubjectProduct
	}
}

// PurchasePayload is the kind-specific half of a Transaction. A closed
// union keeps activation dispatch exhaustive instead of spelunking a
// metadata bag.
type PurchasePayload interface {
	PurchaseKind() PurchaseKind
	SubjectID() string
}

type MembershipPurchase struct {
	MembershipID string
	Duration     MembershipDuration
}

func (p MembershipPurchase) PurchaseKind() PurchaseKind { return PurchaseKindMembership }
func (p MembershipPurchase) SubjectID() string          { return p.MembershipID }

type CoursePurchase struct {
	CourseID string
}

func (p CoursePurchase) PurchaseKind() PurchaseKind { return PurchaseKindCourse }
func (p CoursePurchase) SubjectID() string          { return p.CourseID }

type ProductPurchase struct {
	ProductID string
}

func (p ProductPurchase) PurchaseKind() PurchaseKind { return PurchaseKindProduct }
func (p ProductPurchase) SubjectID() string          { return p.ProductID }

// MembershipDuration is the fixed set of membership period classes.
type MembershipDuration string

const (
	DurationOneMonth     MembershipDuration = "ONE_MONTH"
	DurationThreeMonths  MembershipDuration = "THREE_MONTHS"
	DurationSixMonths    MembershipDuration = "SIX_MONTHS"
	DurationTwelveMonths MembershipDuration = "TWELVE_MONTHS"
	DurationLifetime     MembershipDuration = "LIFETIME"
)

func (d MembershipDuration) Valid() bool {
	switch d {
	case DurationOneMonth, DurationThreeMonths, DurationSixMonths, DurationTwelveMonths, DurationLifetime:
		return true
	}
	return false
}

// EndFrom computes the membership expiry for a period starting at from.
// Lifetime gets a century-long window so every membership entitlement
// carries a comparable end date. Unknown durations collapse to from,
// which validation upstream is expected to prevent.
func (d MembershipDuration) EndFrom(from time.Time) time.Time {
	switch d {
	case DurationOneMonth:
		return from.AddDate(0, 1, 0)
	case DurationThreeMonths:
		return from.AddDate(0, 3, 0)
	case DurationSixMonths:
		return from.AddDate(0, 6, 0)
	case DurationTwelveMonths:
		return from.AddDate(1, 0, 0)
	case DurationLifetime:
		return from.AddDate(100, 0, 0)
	}
	return from
}
