// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/repository"
)

// Compile-time check
var _ ActivationUseCase = (*activationUC)(nil)

// ActivationUseCase runs the ordered side effects of a settled
// transaction: entitlement grants, revenue split, affiliate conversion,
// challenge progress and coupon consumption. Every write is keyed by a
// natural key derived from the transaction, so the run can be repeated
// from the top after a crash or partial failure and converges to the
// same final state.
type ActivationUseCase interface {
	Activate(ctx context.Context, transactionID string) (*model.ActivationResult, error)
}

type activationUC struct {
	transactions repository.TransactionRepository
	entitlements repository.EntitlementRepository
	revenue      repository.RevenueRepository
	conversions  repository.AffiliateConversionRepository
	coupons      repository.CouponRepository
	catalog      repository.CatalogRepository
	challenges   ChallengeUseCase
	tm           repository.TransactionManager
	log          *zerolog.Logger
}

func NewActivationUseCase(
	transactions repository.TransactionRepository,
	entitlements repository.EntitlementRepository,
	revenue repository.RevenueRepository,
	conversions repository.AffiliateConversionRepository,
	coupons repository.CouponRepository,
	catalog repository.CatalogRepository,
	challenges ChallengeUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *activationUC {
	return &activationUC{
		transactions: transactions,
		entitlements: entitlements,
		revenue:      revenue,
		conversions:  conversions,
		coupons:      coupons,
		catalog:      catalog,
		challenges:   challenges,
		tm:           tm,
		log:          logger,
	}
}

func (u *activationUC) Activate(ctx context.Context, transactionID string) (*model.ActivationResult, error) {
	t, err := u.transactions.FindByID(ctx, repository.NoTX, transactionID)
	if err != nil {
		return nil, err
	}
	if t.Status != model.TransactionStatusSettled {
		return nil, fmt.Errorf("activate %s: status %s: %w", transactionID, t.Status, domain.ErrInvalidArgument)
	}

	res := &model.ActivationResult{TransactionID: t.ID}

	item, err := u.catalogItem(ctx, t)
	if err != nil {
		// Without the catalog item nothing downstream can be computed.
		res.Partial = true
		res.StepErrors = append(res.StepErrors, model.StepError{Step: "catalog", Err: err})
		u.logResult(t, res)
		return res, nil
	}

	// Steps 1-2: entitlement grants.
	if err := u.grant(ctx, t, res); err != nil {
		res.StepErrors = append(res.StepErrors, model.StepError{Step: "grant", Err: err})
	}

	// Step 3: revenue distribution. Later steps read the stored row so
	// a re-run after a crash sees the same numbers.
	dist, err := u.persistSplit(ctx, t, item)
	if err != nil {
		res.StepErrors = append(res.StepErrors, model.StepError{Step: "revenue_split", Err: err})
	}
	res.Revenue = dist

	// Steps 4-5: affiliate conversion and challenge progress. Any
	// attributed sale counts, zero commission included. The conversion
	// is keyed by transaction and progress increments are de-duplicated
	// per (challenge, transaction) in storage, so a re-run after a
	// partial failure replays both without double counting.
	if t.AffiliateID != nil && dist != nil {
		if _, err := u.recordConversion(ctx, t, dist); err != nil {
			res.StepErrors = append(res.StepErrors, model.StepError{Step: "affiliate_conversion", Err: err})
		} else {
			updates, err := u.challenges.UpdateProgress(ctx, *t.AffiliateID, model.ProgressSignal{
				TransactionID: t.ID,
				SubjectKind:   t.Kind.Subject(),
				SubjectID:     t.Payload.SubjectID(),
				Sales:         1,
				Revenue:       t.Amount,
				Conversions:   1,
			})
			if err != nil {
				res.StepErrors = append(res.StepErrors, model.StepError{Step: "challenge_progress", Err: err})
			}
			res.ChallengeUpdates = updates
		}
	}

	// Step 6: coupon consumption.
	if t.CouponID != nil {
		consumed, err := u.consumeCoupon(ctx, t)
		if err != nil {
			res.StepErrors = append(res.StepErrors, model.StepError{Step: "coupon", Err: err})
		}
		res.CouponConsumed = consumed
	}

	res.Partial = len(res.StepErrors) > 0
	u.logResult(t, res)
	return res, nil
}

func (u *activationUC) catalogItem(ctx context.Context, t *model.Transaction) (*model.CatalogItem, error) {
	if t.Kind == model.PurchaseKindMembership {
		plan, err := u.catalog.FindMembershipPlan(ctx, t.Payload.SubjectID())
		if err != nil {
			return nil, err
		}
		return &plan.CatalogItem, nil
	}
	return u.catalog.FindItem(ctx, t.Kind.Subject(), t.Payload.SubjectID())
}

func (u *activationUC) grant(ctx context.Context, t *model.Transaction, res *model.ActivationResult) error {
	now := time.Now()

	switch p := t.Payload.(type) {
	case model.MembershipPurchase:
		plan, err := u.catalog.FindMembershipPlan(ctx, p.MembershipID)
		if err != nil {
			return err
		}
		end := p.Duration.EndFrom(now)
		// The exclusivity swap runs in one DB transaction so a user is
		// never observed with zero active memberships mid-switch.
		return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := u.entitlements.DeactivateMemberships(ctx, tx, t.UserID, t.ID); err != nil {
				return err
			}
			e := &model.Entitlement{
				ID:            uuid.NewString(),
				UserID:        t.UserID,
				SubjectKind:   model.SubjectMembership,
				SubjectID:     p.MembershipID,
				TransactionID: t.ID,
				StartAt:       now,
				EndAt:         &end,
				Active:        true,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := u.entitlements.UpsertByTransaction(ctx, tx, e); err != nil {
				return err
			}
			res.GrantedSubjects = append(res.GrantedSubjects, subjectKey(model.SubjectMembership, p.MembershipID))

			for _, gid := range plan.GroupIDs {
				if err := u.grantAdditive(ctx, tx, t, model.SubjectGroup, gid, now, res); err != nil {
					return err
				}
			}
			for _, cid := range plan.CourseIDs {
				if err := u.grantAdditive(ctx, tx, t, model.SubjectCourse, cid, now, res); err != nil {
					return err
				}
			}
			for _, pid := range plan.ProductIDs {
				if err := u.grantAdditive(ctx, tx, t, model.SubjectProduct, pid, now, res); err != nil {
					return err
				}
			}
			return nil
		})

	case model.CoursePurchase:
		return u.grantAdditive(ctx, repository.NoTX, t, model.SubjectCourse, p.CourseID, now, res)

	case model.ProductPurchase:
		return u.grantAdditive(ctx, repository.NoTX, t, model.SubjectProduct, p.ProductID, now, res)
	}

	return fmt.Errorf("activate %s: unknown payload kind: %w", t.ID, domain.ErrInvalidArgument)
}

func (u *activationUC) grantAdditive(ctx context.Context, tx repository.Tx, t *model.Transaction, kind model.SubjectKind, subjectID string, now time.Time, res *model.ActivationResult) error {
	e := &model.Entitlement{
		ID:            uuid.NewString(),
		UserID:        t.UserID,
		SubjectKind:   kind,
		SubjectID:     subjectID,
		TransactionID: t.ID,
		StartAt:       now,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	created, err := u.entitlements.CreateIfAbsent(ctx, tx, e)
	if err != nil {
		return err
	}
	if created {
		res.GrantedSubjects = append(res.GrantedSubjects, subjectKey(kind, subjectID))
	}
	return nil
}

func (u *activationUC) persistSplit(ctx context.Context, t *model.Transaction, item *model.CatalogItem) (*model.RevenueDistribution, error) {
	split, err := Split(t.Amount, SplitConfig{
		MentorCommissionPercent: item.MentorCommissionPercent,
		AffiliateCommissionType: item.AffiliateCommissionType,
		AffiliateCommissionRate: item.AffiliateCommissionRate,
	}, t.AffiliateID != nil)
	if err != nil {
		return nil, err
	}
	d := &model.RevenueDistribution{
		TransactionID:   t.ID,
		PlatformAmount:  split.Platform,
		MentorAmount:    split.Mentor,
		MentorID:        item.MentorID,
		AffiliateAmount: split.Affiliate,
		AffiliateID:     t.AffiliateID,
		Total:           t.Amount,
		CreatedAt:       time.Now(),
	}
	return u.revenue.CreateIfAbsent(ctx, repository.NoTX, d)
}

func (u *activationUC) recordConversion(ctx context.Context, t *model.Transaction, dist *model.RevenueDistribution) (bool, error) {
	c := &model.AffiliateConversion{
		ID:               uuid.NewString(),
		AffiliateID:      *t.AffiliateID,
		TransactionID:    t.ID,
		CommissionAmount: dist.AffiliateAmount,
		Status:           model.ConversionApproved,
		CreatedAt:        time.Now(),
	}
	return u.conversions.CreateIfAbsent(ctx, repository.NoTX, c)
}

func (u *activationUC) consumeCoupon(ctx context.Context, t *model.Transaction) (bool, error) {
	var consumed bool
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		var err error
		consumed, err = u.coupons.ConsumeOnce(ctx, tx, *t.CouponID, t.ID)
		return err
	})
	return consumed, err
}

func (u *activationUC) logResult(t *model.Transaction, res *model.ActivationResult) {
	ev := u.log.Info()
	if res.Partial {
		ev = u.log.Warn()
	}
	for _, se := range res.StepErrors {
		u.log.Error().Err(se.Err).Str("txn_id", t.ID).Str("step", se.Step).Msg("activation step failed")
	}
	ev.Str("txn_id", t.ID).
		Str("user_id", t.UserID).
		Strs("granted", res.GrantedSubjects).
		Bool("partial", res.Partial).
		Msg("activation run finished")
}

func subjectKey(kind model.SubjectKind, id string) string {
	return string(kind) + ":" + id
}
