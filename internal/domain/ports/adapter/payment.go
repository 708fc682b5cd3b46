package adapter

import (
	"context"

	"construction-course-checkout/internal/domain/model"
)

// PaymentProvider is the hex port for payment providers. One implementation
// exists per provider; the orchestrator selects one by its runtime name.
//
// CreateOrder must be side-effect-free on internal state: it only talks to
// the external provider and returns a reference. CaptureOrder re-queries the
// provider for the authoritative status of a previously created order and is
// the only input confirmation logic may trust; client- or webhook-supplied
// status fields are advisory at best.
type PaymentProvider interface {
	Name() string

	CreateOrder(ctx context.Context, intent *model.CheckoutIntent) (model.CreatedOrder, error)
	CaptureOrder(ctx context.Context, providerOrderID string) (model.Capture, error)
}
