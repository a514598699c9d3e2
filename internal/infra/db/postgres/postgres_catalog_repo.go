package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/repository"
)

var _ repository.CatalogRepository = (*catalogRepo)(nil)

// catalogRepo reads the catalog tables another system maintains.
type catalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo {
	return &catalogRepo{pool: pool}
}

const itemColumns = `id, name, kind, price, mentor_id, mentor_commission_percent, affiliate_commission_type, affiliate_commission_rate`

func (r *catalogRepo) FindItem(ctx context.Context, kind model.SubjectKind, id string) (*model.CatalogItem, error) {
	const q = `SELECT ` + itemColumns + ` FROM catalog_items WHERE kind=$1 AND id=$2;`
	row, err := pickRow(ctx, r.pool, nil, q, string(kind), id)
	if err != nil {
		return nil, err
	}
	return scanItem(row)
}

func (r *catalogRepo) FindMembershipPlan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	const q = `
SELECT i.id, i.name, i.kind, i.price, i.mentor_id, i.mentor_commission_percent, i.affiliate_commission_type, i.affiliate_commission_rate, p.duration
  FROM catalog_items i JOIN membership_plans p ON p.item_id = i.id
 WHERE i.id=$1;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}

	plan := &model.MembershipPlan{}
	var kind, typ, duration string
	if err := row.Scan(&plan.ID, &plan.Name, &kind, &plan.Price, &plan.MentorID,
		&plan.MentorCommissionPercent, &typ, &plan.AffiliateCommissionRate, &duration); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	plan.Kind = model.SubjectKind(kind)
	plan.AffiliateCommissionType = model.CommissionType(typ)
	plan.Duration = model.MembershipDuration(duration)

	var err2 error
	if plan.GroupIDs, err2 = r.bundled(ctx, "membership_groups", "group_id", id); err2 != nil {
		return nil, err2
	}
	if plan.CourseIDs, err2 = r.bundled(ctx, "membership_courses", "course_id", id); err2 != nil {
		return nil, err2
	}
	if plan.ProductIDs, err2 = r.bundled(ctx, "membership_products", "product_id", id); err2 != nil {
		return nil, err2
	}
	return plan, nil
}

func (r *catalogRepo) bundled(ctx context.Context, table, column, planID string) ([]string, error) {
	q := `SELECT ` + column + ` FROM ` + table + ` WHERE membership_id=$1;`
	rows, err := queryRows(ctx, r.pool, nil, q, planID)
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, id)
	}
	return out, nil
}

func scanItem(row pgx.Row) (*model.CatalogItem, error) {
	item := &model.CatalogItem{}
	var kind, typ string
	if err := row.Scan(&item.ID, &item.Name, &kind, &item.Price, &item.MentorID,
		&item.MentorCommissionPercent, &typ, &item.AffiliateCommissionRate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	item.Kind = model.SubjectKind(kind)
	item.AffiliateCommissionType = model.CommissionType(typ)
	return item, nil
}
