//go:build !integration

package web

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/adapter"
	"commerce-entitlement-service/internal/domain/ports/repository"
	"commerce-entitlement-service/internal/usecase"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// Function-field stubs: each test wires only the methods it exercises.

type stubReconcileUC struct {
	ReconcileFunc func(ctx context.Context, ev model.ConfirmationEvent) (*model.ReconcileResult, error)
}

func (s *stubReconcileUC) Reconcile(ctx context.Context, ev model.ConfirmationEvent) (*model.ReconcileResult, error) {
	return s.ReconcileFunc(ctx, ev)
}

type stubActivationUC struct {
	ActivateFunc func(ctx context.Context, transactionID string) (*model.ActivationResult, error)
}

func (s *stubActivationUC) Activate(ctx context.Context, transactionID string) (*model.ActivationResult, error) {
	return s.ActivateFunc(ctx, transactionID)
}

type stubCheckoutUC struct {
	InitiateFunc func(ctx context.Context, in usecase.CheckoutInput) (*model.Transaction, error)
}

func (s *stubCheckoutUC) Initiate(ctx context.Context, in usecase.CheckoutInput) (*model.Transaction, error) {
	return s.InitiateFunc(ctx, in)
}

type stubChallengeUC struct {
	UpdateProgressFunc  func(ctx context.Context, affiliateID string, sig model.ProgressSignal) ([]model.ProgressUpdate, error)
	SetRewardStatusFunc func(ctx context.Context, challengeID, affiliateID string, to model.RewardStatus) error
}

func (s *stubChallengeUC) UpdateProgress(ctx context.Context, affiliateID string, sig model.ProgressSignal) ([]model.ProgressUpdate, error) {
	return s.UpdateProgressFunc(ctx, affiliateID, sig)
}

func (s *stubChallengeUC) SetRewardStatus(ctx context.Context, challengeID, affiliateID string, to model.RewardStatus) error {
	return s.SetRewardStatusFunc(ctx, challengeID, affiliateID, to)
}

type stubTxnRepo struct {
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error)
}

func (s *stubTxnRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	return nil
}

func (s *stubTxnRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	if s.FindByIDFunc != nil {
		return s.FindByIDFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}

func (s *stubTxnRepo) FindByProviderRef(ctx context.Context, tx repository.Tx, ref string) (*model.Transaction, error) {
	return nil, domain.ErrNotFound
}

func (s *stubTxnRepo) SetProviderRef(ctx context.Context, tx repository.Tx, id, ref, payURL string) error {
	return nil
}

func (s *stubTxnRepo) SettleIfPending(ctx context.Context, tx repository.Tx, id string, paidAt time.Time) (bool, error) {
	return false, nil
}

func (s *stubTxnRepo) FailIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	return false, nil
}

func (s *stubTxnRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	return nil, nil
}

type stubGateway struct {
	GetStatusFunc func(ctx context.Context, providerRef string) (*adapter.GatewayStatus, error)
}

func (s *stubGateway) Name() string { return "stub" }

func (s *stubGateway) CreateInvoice(ctx context.Context, transactionID string, amount int64, description string) (*adapter.Invoice, error) {
	return &adapter.Invoice{ProviderRef: "inv-" + transactionID, PayURL: "https://pay.example/" + transactionID}, nil
}

func (s *stubGateway) GetStatus(ctx context.Context, providerRef string) (*adapter.GatewayStatus, error) {
	if s.GetStatusFunc != nil {
		return s.GetStatusFunc(ctx, providerRef)
	}
	return &adapter.GatewayStatus{Status: model.ReportedPending}, nil
}