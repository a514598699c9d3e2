package repository

import (
	"context"

	"commerce-entitlement-service/internal/domain/model"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	FindByID(ctx context.Context, tx Tx, id string) (*model.Coupon, error)
	// ConsumeOnce records the (coupon, transaction) usage marker and
	// bumps the counter under its limit guard. Returns true when this
	// call consumed a slot, false when the transaction had already
	// consumed one. ErrCouponExhausted when the limit is gone.
	ConsumeOnce(ctx context.Context, tx Tx, couponID, transactionID string) (bool, error)
}
