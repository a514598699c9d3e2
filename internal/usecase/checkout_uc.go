// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/adapter"
	"commerce-entitlement-service/internal/domain/ports/repository"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

// CheckoutUseCase creates a pending transaction for a purchase and
// requests a provider invoice for it. Coupons are validated and the
// discount applied here, but the usage slot is only consumed at
// settlement.
type CheckoutUseCase interface {
	Initiate(ctx context.Context, in CheckoutInput) (*model.Transaction, error)
}

type CheckoutInput struct {
	UserID      string
	Kind        model.PurchaseKind
	SubjectID   string
	Duration    model.MembershipDuration // membership only; empty uses the plan default
	CouponCode  string
	AffiliateID string
	Description string
}

type checkoutUC struct {
	transactions repository.TransactionRepository
	coupons      repository.CouponRepository
	catalog      repository.CatalogRepository
	gateway      adapter.PaymentGateway
	log          *zerolog.Logger
}

func NewCheckoutUseCase(
	transactions repository.TransactionRepository,
	coupons repository.CouponRepository,
	catalog repository.CatalogRepository,
	gateway adapter.PaymentGateway,
	logger *zerolog.Logger,
) *checkoutUC {
	return &checkoutUC{transactions: transactions, coupons: coupons, catalog: catalog, gateway: gateway, log: logger}
}

func (u *checkoutUC) Initiate(ctx context.Context, in CheckoutInput) (*model.Transaction, error) {
	if in.UserID == "" || in.SubjectID == "" || !in.Kind.Valid() {
		return nil, fmt.Errorf("checkout: missing user, subject or kind: %w", domain.ErrInvalidArgument)
	}

	item, payload, err := u.resolve(ctx, in)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	amount := item.Price
	var couponID *string
	var discount int64
	if in.CouponCode != "" {
		c, err := u.coupons.FindByCode(ctx, repository.NoTX, in.CouponCode)
		if err != nil {
			return nil, err
		}
		if !c.Usable(now) {
			return nil, fmt.Errorf("checkout: coupon %s: %w", c.Code, domain.ErrCouponExhausted)
		}
		discount = c.Discount(amount)
		amount -= discount
		couponID = &c.ID
	}

	var affiliateID *string
	if in.AffiliateID != "" {
		affiliateID = &in.AffiliateID
	}

	t := &model.Transaction{
		ID:             ulid.Make().String(),
		UserID:         in.UserID,
		Kind:           in.Kind,
		Payload:        payload,
		Amount:         amount,
		OriginalAmount: item.Price,
		DiscountAmount: discount,
		CouponID:       couponID,
		AffiliateID:    affiliateID,
		Status:         model.TransactionStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	desc := in.Description
	if desc == "" {
		desc = item.Name
	}
	inv, err := u.gateway.CreateInvoice(ctx, t.ID, amount, desc)
	if err != nil {
		return nil, err
	}
	t.ProviderRef = &inv.ProviderRef
	t.PayURL = inv.PayURL

	if err := u.transactions.Save(ctx, repository.NoTX, t); err != nil {
		return nil, err
	}
	u.log.Info().Str("txn_id", t.ID).Str("user_id", t.UserID).
		Str("kind", string(t.Kind)).Int64("amount", amount).Msg("checkout initiated")
	return t, nil
}

func (u *checkoutUC) resolve(ctx context.Context, in CheckoutInput) (*model.CatalogItem, model.PurchasePayload, error) {
	switch in.Kind {
	case model.PurchaseKindMembership:
		plan, err := u.catalog.FindMembershipPlan(ctx, in.SubjectID)
		if err != nil {
			return nil, nil, err
		}
		dur := in.Duration
		if dur == "" {
			dur = plan.Duration
		}
		if !dur.Valid() {
			return nil, nil, fmt.Errorf("checkout: duration %q: %w", dur, domain.ErrInvalidArgument)
		}
		return &plan.CatalogItem, model.MembershipPurchase{MembershipID: in.SubjectID, Duration: dur}, nil
	case model.PurchaseKindCourse:
		item, err := u.catalog.FindItem(ctx, model.SubjectCourse, in.SubjectID)
		if err != nil {
			return nil, nil, err
		}
		return item, model.CoursePurchase{CourseID: in.SubjectID}, nil
	default:
		item, err := u.catalog.FindItem(ctx, model.SubjectProduct, in.SubjectID)
		if err != nil {
			return nil, nil, err
		}
		return item, model.ProductPurchase{ProductID: in.SubjectID}, nil
	}
}
