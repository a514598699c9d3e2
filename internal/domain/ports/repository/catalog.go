package repository

import (
	"context"

	"commerce-entitlement-service/internal/domain/model"
)

// CatalogRepository reads purchasable configuration. The catalog is
// owned by another system; this service never writes it.
type CatalogRepository interface {
	FindMembershipPlan(ctx context.Context, id string) (*model.MembershipPlan, error)
	FindItem(ctx context.Context, kind model.SubjectKind, id string) (*model.CatalogItem, error)
}
