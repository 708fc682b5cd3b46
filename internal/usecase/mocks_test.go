//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

// memCatalogRepo is a small in-memory implementation used by unit tests.
type memCatalogRepo struct {
	mu      sync.RWMutex
	courses map[string]*model.Course
	plans   map[string]*model.SubscriptionPlan
	findErr error // used by tests to simulate lookup failures
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{
		courses: make(map[string]*model.Course),
		plans:   make(map[string]*model.SubscriptionPlan),
	}
}

func (m *memCatalogRepo) FindSubject(ctx context.Context, tx repository.Tx, subjectType model.SubjectType, id string) (*model.Subject, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch subjectType {
	case model.SubjectCourse:
		if c, ok := m.courses[id]; ok {
			return &model.Subject{Type: subjectType, ID: c.ID, Title: c.Title, PriceCents: c.PriceCents, Currency: c.Currency}, nil
		}
	case model.SubjectSubscription:
		if p, ok := m.plans[id]; ok {
			return &model.Subject{Type: subjectType, ID: p.ID, Title: p.Name, PriceCents: p.PriceCents, Currency: p.Currency, IntervalMonths: p.IntervalMonths}, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memCatalogRepo) SaveCourse(ctx context.Context, tx repository.Tx, c *model.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.courses[c.ID] = &cp
	return nil
}

func (m *memCatalogRepo) SavePlan(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.plans[p.ID] = &cp
	return nil
}

type memCouponRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Coupon
	findErr error
}

func newMemCouponRepo() *memCouponRepo {
	return &memCouponRepo{store: make(map[string]*model.Coupon)}
}

func (m *memCouponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCouponRepo) Save(ctx context.Context, tx repository.Tx, c *model.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.store[c.Code] = &cp
	return nil
}

func (m *memCouponRepo) MarkRedeemed(ctx context.Context, tx repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok {
		return domain.ErrNotFound
	}
	c.Redeemed++
	return nil
}

type memPaymentRepo struct {
	mu      sync.RWMutex
	store   map[string]*model.Payment
	saveErr error
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{store: make(map[string]*model.Payment)}
}

func (m *memPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *memPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPaymentRepo) FindByProviderOrderID(ctx context.Context, tx repository.Tx, provider, providerOrderID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.Provider == provider && p.ProviderOrderID == providerOrderID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) FindByIntentID(ctx context.Context, tx repository.Tx, intentID string) (*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.store {
		if p.IntentID == intentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	if providerRef != nil {
		p.ProviderRef = *providerRef
	}
	p.PaidAt = paidAt
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// memEventRepo backs TryClaim with a map and a mutex, which gives the same
// exactly-one-winner behavior the unique key does in Postgres.
type memEventRepo struct {
	mu       sync.Mutex
	claimed  map[string]bool
	claimErr error
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{claimed: make(map[string]bool)}
}

func (m *memEventRepo) TryClaim(ctx context.Context, tx repository.Tx, key string) (bool, error) {
	if m.claimErr != nil {
		return false, m.claimErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.claimed[key] {
		return false, nil
	}
	m.claimed[key] = true
	return true, nil
}

type memEnrollmentRepo struct {
	mu        sync.Mutex
	store     []*model.Enrollment
	insertErr error
}

func newMemEnrollmentRepo() *memEnrollmentRepo {
	return &memEnrollmentRepo{}
}

func (m *memEnrollmentRepo) Insert(ctx context.Context, tx repository.Tx, e *model.Enrollment) (bool, error) {
	if m.insertErr != nil {
		return false, m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.store {
		if e.ProviderOrderID != "" && existing.ProviderOrderID == e.ProviderOrderID {
			return false, nil
		}
		if existing.UserID == e.UserID && existing.SubjectType == e.SubjectType && existing.SubjectID == e.SubjectID {
			return false, nil
		}
	}
	cp := *e
	m.store = append(m.store, &cp)
	return true, nil
}

func (m *memEnrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Enrollment
	for _, e := range m.store {
		if e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memEnrollmentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store)
}

type memReconRepo struct {
	mu    sync.Mutex
	store map[string]*model.ReconciliationException
}

func newMemReconRepo() *memReconRepo {
	return &memReconRepo{store: make(map[string]*model.ReconciliationException)}
}

func (m *memReconRepo) Save(ctx context.Context, tx repository.Tx, ex *model.ReconciliationException) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ex
	m.store[ex.ID] = &cp
	return nil
}

func (m *memReconRepo) ListUnresolved(ctx context.Context, tx repository.Tx, limit int) ([]*model.ReconciliationException, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ReconciliationException
	for _, ex := range m.store {
		if !ex.Resolved {
			cp := *ex
			out = append(out, &cp)
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (m *memReconRepo) MarkResolved(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ex, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	ex.Resolved = true
	return nil
}

// memTxManager runs the function directly; the mem repos ignore tx anyway.
type memTxManager struct{}

func (memTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, nil)
}

// mockGateway is a configurable PaymentProvider for orchestrator tests.
type mockGateway struct {
	mu           sync.Mutex
	name         string
	createCalls  int
	captureCalls int
	CreateFunc   func(ctx context.Context, intent *model.CheckoutIntent) (model.CreatedOrder, error)
	CaptureFunc  func(ctx context.Context, providerOrderID string) (model.Capture, error)
}

func (g *mockGateway) Name() string {
	if g.name == "" {
		return "mock"
	}
	return g.name
}

func (g *mockGateway) CreateOrder(ctx context.Context, intent *model.CheckoutIntent) (model.CreatedOrder, error) {
	g.mu.Lock()
	g.createCalls++
	g.mu.Unlock()
	if g.CreateFunc != nil {
		return g.CreateFunc(ctx, intent)
	}
	return model.CreatedOrder{ProviderOrderID: "order-" + intent.ID, RedirectURL: "https://pay.example/" + intent.ID}, nil
}

func (g *mockGateway) CaptureOrder(ctx context.Context, providerOrderID string) (model.Capture, error) {
	g.mu.Lock()
	g.captureCalls++
	g.mu.Unlock()
	if g.CaptureFunc != nil {
		return g.CaptureFunc(ctx, providerOrderID)
	}
	return model.Capture{Status: model.CaptureApproved, AmountCents: 1000, Currency: "BRL", ProviderRef: "ref-" + providerOrderID}, nil
}

func (g *mockGateway) captureCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captureCalls
}

func (g *mockGateway) createCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.createCalls
}

// mockApplier counts Apply calls and can be told to fail.
type mockApplier struct {
	mu       sync.Mutex
	applied  []model.Effect
	applyErr error
}

func (a *mockApplier) Apply(ctx context.Context, effect model.Effect) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.applyErr != nil {
		return a.applyErr
	}
	a.applied = append(a.applied, effect)
	return nil
}

func (a *mockApplier) applyCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.applied)
}
