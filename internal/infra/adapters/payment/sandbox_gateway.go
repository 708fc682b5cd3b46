package payment

import (
	"context"
	"fmt"
	"sync"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*SandboxGateway)(nil)

// SandboxGateway is a simple in-memory provider to use in dev mode and tests.
// Orders start pending; tests drive them to a terminal state via SetStatus.
type SandboxGateway struct {
	mu     sync.Mutex
	seq    int64
	orders map[string]*model.Capture
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{orders: make(map[string]*model.Capture)}
}

func (g *SandboxGateway) Name() string { return "sandbox" }

func (g *SandboxGateway) next() string {
	g.seq++
	return fmt.Sprintf("sbx-%d", g.seq)
}

func (g *SandboxGateway) CreateOrder(ctx context.Context, intent *model.CheckoutIntent) (model.CreatedOrder, error) {
	if intent.AmountCents <= 0 {
		return model.CreatedOrder{}, domain.ErrInvalidIntent
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next()
	g.orders[id] = &model.Capture{
		Status:      model.CapturePending,
		AmountCents: intent.AmountCents,
		Currency:    intent.Currency,
		ProviderRef: "ref-" + id,
		ExternalRef: intent.ID,
	}
	return model.CreatedOrder{ProviderOrderID: id, RedirectURL: "https://sandbox.example.test/pay/" + id}, nil
}

func (g *SandboxGateway) CaptureOrder(ctx context.Context, providerOrderID string) (model.Capture, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.orders[providerOrderID]
	if !ok {
		return model.Capture{}, domain.ErrNotFound
	}
	return *c, nil
}

// SetStatus moves a sandbox order to the given status.
func (g *SandboxGateway) SetStatus(providerOrderID string, status model.CaptureStatus) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.orders[providerOrderID]
	if !ok {
		return domain.ErrNotFound
	}
	c.Status = status
	return nil
}
