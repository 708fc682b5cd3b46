// File: internal/infra/sched/payment_reconciler.go
package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/repository"
	"construction-course-checkout/internal/infra/worker"
	"construction-course-checkout/internal/usecase"
)

// PaymentReconciler periodically scans for stale pending payments and tries
// to finalize them by re-confirming against the provider. This covers the
// cases where the webhook never arrived, the user closed the browser before
// the redirect, or the process crashed mid-confirm. Confirmation is
// idempotent, so racing a late webhook is harmless.
type PaymentReconciler struct {
	uc         usecase.CheckoutUseCase
	payments   repository.PaymentRepository
	pool       *worker.Pool
	interval   time.Duration // how often to scan
	staleAfter time.Duration // how old a pending payment must be to retry
	log        *zerolog.Logger
}

func NewPaymentReconciler(
	uc usecase.CheckoutUseCase,
	payments repository.PaymentRepository,
	pool *worker.Pool,
	interval, staleAfter time.Duration,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 10 * time.Minute
	}
	return &PaymentReconciler{
		uc:         uc,
		payments:   payments,
		pool:       pool,
		interval:   interval,
		staleAfter: staleAfter,
		log:        logger,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.tick(ctx)
		}
	}
}

func (w *PaymentReconciler) tick(ctx context.Context) {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.payments.ListPendingOlderThan(ctx, nil, cutoff, 200)
	if err != nil {
		w.log.Error().Err(err).Msg("payment reconciler: list pending")
		return
	}
	for _, p := range pending {
		if p.ProviderOrderID == "" {
			continue
		}
		provider, orderID := p.Provider, p.ProviderOrderID
		err := w.pool.Submit(func(ctx context.Context) error {
			outcome, err := w.uc.Confirm(ctx, provider, orderID, model.EventKey(provider, orderID))
			if err != nil {
				if usecase.IsRetryable(err) {
					// Provider still unreachable; the next scan retries.
					return nil
				}
				return err
			}
			if outcome == model.OutcomeApplied {
				w.log.Info().Str("provider", provider).Str("order_id", orderID).Msg("reconciled stale payment")
			}
			return nil
		})
		if err != nil {
			w.log.Warn().Err(err).Msg("payment reconciler: submit")
			return
		}
	}
}
