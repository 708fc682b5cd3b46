// File: internal/usecase/enrollment_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/adapter"
	"construction-course-checkout/internal/domain/ports/repository"
)

// Compile-time checks
var (
	_ EnrollmentUseCase     = (*enrollmentUC)(nil)
	_ adapter.EffectApplier = (*enrollmentUC)(nil)
)

type EnrollmentUseCase interface {
	// Apply grants the enrollment for a confirmed payment. Idempotent per
	// provider order: re-applying the same order is a no-op.
	Apply(ctx context.Context, effect model.Effect) error
	// EnrollFree grants an enrollment for a zero-cost checkout, keyed by the
	// checkout intent id so reloads cannot duplicate it. The intent must
	// reference a payment row StartCheckout recorded with status 'free' and
	// matching user/subject; anything else is refused.
	EnrollFree(ctx context.Context, intentID, userID string, subjectType model.SubjectType, subjectID string) error
	ListByUser(ctx context.Context, userID string) ([]*model.Enrollment, error)
}

type enrollmentUC struct {
	enrollments repository.EnrollmentRepository
	coupons     repository.CouponRepository
	payments    repository.PaymentRepository
	tm          repository.TransactionManager
	log         *zerolog.Logger
}

func NewEnrollmentUseCase(enrollments repository.EnrollmentRepository, coupons repository.CouponRepository, payments repository.PaymentRepository, tm repository.TransactionManager, logger *zerolog.Logger) *enrollmentUC {
	return &enrollmentUC{enrollments: enrollments, coupons: coupons, payments: payments, tm: tm, log: logger}
}

func (u *enrollmentUC) Apply(ctx context.Context, effect model.Effect) error {
	return u.grant(ctx, &model.Enrollment{
		ID:              uuid.NewString(),
		UserID:          effect.UserID,
		SubjectType:     effect.SubjectType,
		SubjectID:       effect.SubjectID,
		ProviderOrderID: effect.ProviderOrderID,
		CouponCode:      effect.CouponCode,
		CreatedAt:       time.Now(),
	})
}

func (u *enrollmentUC) EnrollFree(ctx context.Context, intentID, userID string, subjectType model.SubjectType, subjectID string) error {
	// The client's word alone grants nothing. The intent id must point at a
	// payment row the checkout itself recorded as free, and the request has
	// to match it; the coupon comes from the row, never from the caller.
	p, err := u.payments.FindByIntentID(ctx, nil, intentID)
	if err != nil {
		return err
	}
	if p.Status != model.PaymentStatusFree {
		return domain.ErrInvalidIntent
	}
	if p.UserID != userID || p.SubjectType != subjectType || p.SubjectID != subjectID {
		u.log.Warn().Str("intent_id", intentID).Str("user_id", userID).Msg("free enrollment request does not match its checkout")
		return domain.ErrInvalidIntent
	}
	return u.grant(ctx, &model.Enrollment{
		ID:              uuid.NewString(),
		UserID:          p.UserID,
		SubjectType:     p.SubjectType,
		SubjectID:       p.SubjectID,
		ProviderOrderID: "free:" + intentID,
		CouponCode:      p.CouponCode,
		CreatedAt:       time.Now(),
	})
}

// grant inserts the enrollment and burns the coupon in one transaction so a
// crash between the two cannot leave a redeemed coupon without an enrollment.
func (u *enrollmentUC) grant(ctx context.Context, e *model.Enrollment) error {
	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		inserted, err := u.enrollments.Insert(ctx, tx, e)
		if err != nil {
			return err
		}
		if !inserted {
			u.log.Debug().Str("provider_order_id", e.ProviderOrderID).Str("user_id", e.UserID).Msg("enrollment already exists")
			return nil
		}
		if e.CouponCode != "" {
			return u.coupons.MarkRedeemed(ctx, tx, e.CouponCode)
		}
		return nil
	})
}

func (u *enrollmentUC) ListByUser(ctx context.Context, userID string) ([]*model.Enrollment, error) {
	return u.enrollments.ListByUser(ctx, nil, userID)
}
