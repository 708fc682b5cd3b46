package repository

import (
	"context"
	"time"

	"construction-course-checkout/internal/domain/model"
)

type PaymentRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	FindByProviderOrderID(ctx context.Context, tx Tx, provider, providerOrderID string) (*model.Payment, error)
	// FindByIntentID looks a payment up by its checkout intent id, the
	// merchant reference providers echo back at capture time.
	FindByIntentID(ctx context.Context, tx Tx, intentID string) (*model.Payment, error)
	// UpdateStatusIfPending atomically moves a payment out of 'pending'; it
	// reports whether a row actually changed so callers can detect races.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus, providerRef *string, paidAt *time.Time) (bool, error)
	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
