//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/adapter"
	"commerce-entitlement-service/internal/domain/ports/repository"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memTxnRepo is a small in-memory implementation used by unit tests.
// SettleIfPending/FailIfPending mirror the conditional UPDATE under a
// mutex so concurrency tests see a single winner.
type memTxnRepo struct {
	mu      sync.Mutex
	store   map[string]*model.Transaction
	saveErr error
	findErr error
}

func newMemTxnRepo() *memTxnRepo {
	return &memTxnRepo{store: make(map[string]*model.Transaction)}
}

func (m *memTxnRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *memTxnRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTxnRepo) FindByProviderRef(ctx context.Context, tx repository.Tx, ref string) (*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.store {
		if t.ProviderRef != nil && *t.ProviderRef == ref {
			cp := *t
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memTxnRepo) SetProviderRef(ctx context.Context, tx repository.Tx, id, ref, payURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	t.ProviderRef = &ref
	t.PayURL = payURL
	return nil
}

func (m *memTxnRepo) SettleIfPending(ctx context.Context, tx repository.Tx, id string, paidAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = model.TransactionStatusSettled
	t.SettledAt = &paidAt
	return true, nil
}

func (m *memTxnRepo) FailIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.store[id]
	if !ok {
		return false, domain.ErrNotFound
	}
	if t.Status != model.TransactionStatusPending {
		return false, nil
	}
	t.Status = model.TransactionStatusFailed
	return true, nil
}

func (m *memTxnRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Transaction
	for _, t := range m.store {
		if t.Status == model.TransactionStatusPending && t.CreatedAt.Before(olderThan) {
			cp := *t
			out = append(out, &cp)
			if len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

type entKey struct {
	user, kind, subject string
}

type memEntitlementRepo struct {
	mu        sync.Mutex
	rows      []*model.Entitlement
	upsertErr error
	createErr error
}

func newMemEntitlementRepo() *memEntitlementRepo { return &memEntitlementRepo{} }

func (m *memEntitlementRepo) UpsertByTransaction(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.TransactionID == e.TransactionID && r.SubjectKind == e.SubjectKind && r.SubjectID == e.SubjectID {
			r.Active = e.Active
			r.StartAt = e.StartAt
			r.EndAt = e.EndAt
			return nil
		}
	}
	cp := *e
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memEntitlementRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, e *model.Entitlement) (bool, error) {
	if m.createErr != nil {
		return false, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == e.UserID && r.SubjectKind == e.SubjectKind && r.SubjectID == e.SubjectID {
			return false, nil
		}
	}
	cp := *e
	m.rows = append(m.rows, &cp)
	return true, nil
}

func (m *memEntitlementRepo) DeactivateMemberships(ctx context.Context, tx repository.Tx, userID, exceptTransactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == userID && r.SubjectKind == model.SubjectMembership && r.TransactionID != exceptTransactionID {
			r.Active = false
		}
	}
	return nil
}

func (m *memEntitlementRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, limit int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now()
	for _, r := range m.rows {
		if r.SubjectKind == model.SubjectMembership && r.Active && r.Expired(now) {
			r.Active = false
			n++
		}
	}
	return n, nil
}

func (m *memEntitlementRepo) FindActiveMembership(ctx context.Context, tx repository.Tx, userID string) (*model.Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == userID && r.SubjectKind == model.SubjectMembership && r.Active {
			cp := *r
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memEntitlementRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Entitlement
	for _, r := range m.rows {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

// find returns the stored row for assertions.
func (m *memEntitlementRepo) find(user string, kind model.SubjectKind, subject string) *model.Entitlement {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rows {
		if r.UserID == user && r.SubjectKind == kind && r.SubjectID == subject {
			cp := *r
			return &cp
		}
	}
	return nil
}

func (m *memEntitlementRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memRevenueRepo struct {
	mu        sync.Mutex
	store     map[string]*model.RevenueDistribution
	createErr error
}

func newMemRevenueRepo() *memRevenueRepo {
	return &memRevenueRepo{store: make(map[string]*model.RevenueDistribution)}
}

func (m *memRevenueRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, d *model.RevenueDistribution) (*model.RevenueDistribution, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.store[d.TransactionID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *d
	m.store[d.TransactionID] = &cp
	out := cp
	return &out, nil
}

func (m *memRevenueRepo) FindByTransaction(ctx context.Context, tx repository.Tx, transactionID string) (*model.RevenueDistribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.store[transactionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

type memConversionRepo struct {
	mu    sync.Mutex
	store map[string]*model.AffiliateConversion // key affiliate|transaction
}

func newMemConversionRepo() *memConversionRepo {
	return &memConversionRepo{store: make(map[string]*model.AffiliateConversion)}
}

func convKey(affiliateID, transactionID string) string { return affiliateID + "|" + transactionID }

func (m *memConversionRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, c *model.AffiliateConversion) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := convKey(c.AffiliateID, c.TransactionID)
	if _, ok := m.store[k]; ok {
		return false, nil
	}
	cp := *c
	m.store[k] = &cp
	return true, nil
}

func (m *memConversionRepo) FindByTransaction(ctx context.Context, tx repository.Tx, affiliateID, transactionID string) (*model.AffiliateConversion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[convKey(affiliateID, transactionID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memConversionRepo) MarkPaidOut(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.store {
		if c.ID == id && c.Status != model.ConversionPaidOut {
			c.Status = model.ConversionPaidOut
			c.PaidOutAt = &at
			return true, nil
		}
	}
	return false, nil
}

type memCouponRepo struct {
	mu      sync.Mutex
	coupons map[string]*model.Coupon
	usages  map[string]bool // coupon|transaction
}

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{coupons: make(map[string]*model.Coupon), usages: make(map[string]bool)}
}

func (m *memCouponRepo) put(c *model.Coupon) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.coupons[c.ID] = &cp
}

func (m *memCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.coupons {
		if c.Code == code {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCouponRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coupons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCouponRepo) ConsumeOnce(ctx context.Context, tx repository.Tx, couponID, transactionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := couponID + "|" + transactionID
	if m.usages[k] {
		return false, nil
	}
	c, ok := m.coupons[couponID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false, domain.ErrCouponExhausted
	}
	m.usages[k] = true
	c.UsedCount++
	return true, nil
}

type memCatalogRepo struct {
	mu      sync.Mutex
	plans   map[string]*model.MembershipPlan
	items   map[string]*model.CatalogItem // key kind|id
	findErr error
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{plans: make(map[string]*model.MembershipPlan), items: make(map[string]*model.CatalogItem)}
}

func (m *memCatalogRepo) putPlan(p *model.MembershipPlan) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[p.ID] = &cp
}

func (m *memCatalogRepo) putItem(i *model.CatalogItem) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *i
	m.items[string(i.Kind)+"|"+i.ID] = &cp
}

func (m *memCatalogRepo) FindMembershipPlan(ctx context.Context, id string) (*model.MembershipPlan, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memCatalogRepo) FindItem(ctx context.Context, kind model.SubjectKind, id string) (*model.CatalogItem, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.items[string(kind)+"|"+id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

type memChallengeRepo struct {
	mu         sync.Mutex
	challenges []*model.Challenge
	progress   map[string]*model.ChallengeProgress // challenge|affiliate
	entries    map[string]bool                     // challenge|transaction
	incErr     error
}

func newMemChallengeRepo() *memChallengeRepo {
	return &memChallengeRepo{
		progress: make(map[string]*model.ChallengeProgress),
		entries:  make(map[string]bool),
	}
}

func progKey(challengeID, affiliateID string) string { return challengeID + "|" + affiliateID }

func (m *memChallengeRepo) put(c *model.Challenge) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.challenges = append(m.challenges, &cp)
}

func (m *memChallengeRepo) ListActive(ctx context.Context, tx repository.Tx, at time.Time) ([]*model.Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Challenge
	for _, c := range m.challenges {
		if c.ActiveAt(at) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memChallengeRepo) IncrementProgress(ctx context.Context, tx repository.Tx, challengeID, affiliateID, transactionID string, delta int64) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.incErr != nil {
		return 0, false, m.incErr
	}
	k := progKey(challengeID, affiliateID)
	ek := challengeID + "|" + transactionID
	if m.entries[ek] {
		if p, ok := m.progress[k]; ok {
			return p.Current, false, nil
		}
		return 0, false, nil
	}
	m.entries[ek] = true
	p, ok := m.progress[k]
	if !ok {
		p = &model.ChallengeProgress{ChallengeID: challengeID, AffiliateID: affiliateID, RewardStatus: model.RewardNone}
		m.progress[k] = p
	}
	p.Current += delta
	return p.Current, true, nil
}

func (m *memChallengeRepo) CompleteOnce(ctx context.Context, tx repository.Tx, challengeID, affiliateID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progKey(challengeID, affiliateID)]
	if !ok || p.Completed {
		return false, nil
	}
	p.Completed = true
	p.CompletedAt = &at
	p.RewardStatus = model.RewardPending
	return true, nil
}

func (m *memChallengeRepo) FindProgress(ctx context.Context, tx repository.Tx, challengeID, affiliateID string) (*model.ChallengeProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progKey(challengeID, affiliateID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memChallengeRepo) SetRewardStatus(ctx context.Context, tx repository.Tx, challengeID, affiliateID string, from, to model.RewardStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progKey(challengeID, affiliateID)]
	if !ok || p.RewardStatus != from {
		return false, nil
	}
	p.RewardStatus = to
	return true, nil
}

// memTxManager runs the callback without a real transaction.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}

// mockGateway uses function fields so each test wires exactly what it
// needs.
type mockGateway struct {
	CreateInvoiceFunc func(ctx context.Context, transactionID string, amount int64, description string) (*adapter.Invoice, error)
	GetStatusFunc     func(ctx context.Context, providerRef string) (*adapter.GatewayStatus, error)
}

func (g *mockGateway) Name() string { return "mock" }

func (g *mockGateway) CreateInvoice(ctx context.Context, transactionID string, amount int64, description string) (*adapter.Invoice, error) {
	if g.CreateInvoiceFunc != nil {
		return g.CreateInvoiceFunc(ctx, transactionID, amount, description)
	}
	return &adapter.Invoice{ProviderRef: "inv-" + transactionID, PayURL: "https://pay.example/" + transactionID}, nil
}

func (g *mockGateway) GetStatus(ctx context.Context, providerRef string) (*adapter.GatewayStatus, error) {
	if g.GetStatusFunc != nil {
		return g.GetStatusFunc(ctx, providerRef)
	}
	return &adapter.GatewayStatus{Status: model.ReportedPending}, nil
}

// recordingDispatcher captures dispatched transaction ids.
type recordingDispatcher struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (d *recordingDispatcher) Dispatch(transactionID string) error {
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, transactionID)
	return nil
}

func (d *recordingDispatcher) dispatched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.ids))
	copy(out, d.ids)
	return out
}