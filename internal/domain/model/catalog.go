// File: internal/domain/model/catalog.go
package model

// CommissionType selects how an affiliate commission is derived from a
// sale of a catalog item.
type CommissionType string

const (
	CommissionPercent CommissionType = "percent"
	CommissionFlat    CommissionType = "flat"
)

// CatalogItem is the purchasable configuration shared by memberships,
// courses and products: price plus the revenue-split knobs. The catalog
// is read-only to this service.
type CatalogItem struct {
	ID                      string
	Name                    string
	Kind                    SubjectKind
	Price                   int64
	MentorID                *string
	MentorCommissionPercent int64 // percent of gross, 0 when no mentor
	AffiliateCommissionType CommissionType
	AffiliateCommissionRate int64 // percent, or a flat amount when type is flat
}

// MembershipPlan extends a catalog item with its duration class and the
// bundled grants replicated on activation.
type MembershipPlan struct {
	CatalogItem
	Duration   MembershipDuration
	GroupIDs   []string
	CourseIDs  []string
	ProductIDs []string
}
