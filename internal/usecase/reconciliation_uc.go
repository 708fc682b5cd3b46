// File: internal/usecase/reconciliation_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/repository"
)

// ReconciliationUseCase is the operator view over confirmations that need a
// human: captured payments whose effect did not apply, and orders that have
// sat in pending past the point a provider would still confirm them.
type ReconciliationUseCase interface {
	ListExceptions(ctx context.Context, limit int) ([]*model.ReconciliationException, error)
	Resolve(ctx context.Context, id string) error
	ListStalePayments(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Payment, error)
}

type reconciliationUC struct {
	recons   repository.ReconciliationRepository
	payments repository.PaymentRepository
	log      *zerolog.Logger
}

var _ ReconciliationUseCase = (*reconciliationUC)(nil)

func NewReconciliationUseCase(
	recons repository.ReconciliationRepository,
	payments repository.PaymentRepository,
	logger *zerolog.Logger,
) *reconciliationUC {
	return &reconciliationUC{recons: recons, payments: payments, log: logger}
}

func (u *reconciliationUC) ListExceptions(ctx context.Context, limit int) ([]*model.ReconciliationException, error) {
	if limit <= 0 {
		limit = 50
	}
	return u.recons.ListUnresolved(ctx, nil, limit)
}

func (u *reconciliationUC) Resolve(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidArgument
	}
	if err := u.recons.MarkResolved(ctx, nil, id); err != nil {
		return err
	}
	u.log.Info().Str("exception_id", id).Msg("reconciliation exception resolved")
	return nil
}

func (u *reconciliationUC) ListStalePayments(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Payment, error) {
	if olderThan <= 0 {
		olderThan = time.Hour
	}
	if limit <= 0 {
		limit = 50
	}
	return u.payments.ListPendingOlderThan(ctx, nil, time.Now().Add(-olderThan), limit)
}
