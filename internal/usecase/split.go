// File: internal/usecase/split.go
package usecase

import (
	"fmt"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
)

// SplitConfig carries the revenue knobs of the purchased catalog item.
type SplitConfig struct {
	MentorCommissionPercent int64
	AffiliateCommissionType model.CommissionType
	AffiliateCommissionRate int64
}

// Split divides a settled amount into platform, mentor and affiliate
// shares. Pure function: no I/O, no clock. Integer division rounds the
// mentor and affiliate shares down and the remainder lands on the
// platform share, so the three parts always sum to amount exactly.
// The affiliate share is zero when no affiliate is attributed,
// regardless of the catalog configuration.
func Split(amount int64, cfg SplitConfig, hasAffiliate bool) (model.RevenueSplit, error) {
	if amount < 0 {
		return model.RevenueSplit{}, fmt.Errorf("split: negative amount %d: %w", amount, domain.ErrInvalidArgument)
	}
	if cfg.MentorCommissionPercent < 0 || cfg.AffiliateCommissionRate < 0 {
		return model.RevenueSplit{}, fmt.Errorf("split: negative commission config: %w", domain.ErrInvalidArgument)
	}

	mentor := amount * cfg.MentorCommissionPercent / 100

	var affiliate int64
	if hasAffiliate {
		switch cfg.AffiliateCommissionType {
		case model.CommissionFlat:
			affiliate = cfg.AffiliateCommissionRate
		default:
			affiliate = amount * cfg.AffiliateCommissionRate / 100
		}
	}

	platform := amount - mentor - affiliate
	if platform < 0 {
		return model.RevenueSplit{}, fmt.Errorf("split: shares %d+%d exceed amount %d: %w",
			mentor, affiliate, amount, domain.ErrInvalidArgument)
	}
	return model.RevenueSplit{Platform: platform, Mentor: mentor, Affiliate: affiliate}, nil
}
