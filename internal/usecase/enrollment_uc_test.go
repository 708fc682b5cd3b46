//go:build !integration

// File: internal/usecase/enrollment_uc_test.go
package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
)

func TestEnrollmentUseCase_Apply(t *testing.T) {
	ctx := context.Background()

	effect := model.Effect{
		UserID:          "user-1",
		SubjectType:     model.SubjectCourse,
		SubjectID:       "course-1",
		ProviderOrderID: "order-1",
		CouponCode:      "SAVE20",
	}

	t.Run("grants the enrollment and burns the coupon", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		coupons := newMemCouponRepo()
		_ = coupons.Save(ctx, nil, &model.Coupon{Code: "SAVE20", DiscountPercent: 20, Active: true})
		uc := NewEnrollmentUseCase(enrollments, coupons, newMemPaymentRepo(), memTxManager{}, newTestLogger())

		if err := uc.Apply(ctx, effect); err != nil {
			t.Fatalf("apply: %v", err)
		}

		got, _ := enrollments.ListByUser(ctx, nil, "user-1")
		if len(got) != 1 {
			t.Fatalf("expected one enrollment, got %d", len(got))
		}
		c, _ := coupons.FindByCode(ctx, nil, "SAVE20")
		if c.Redeemed != 1 {
			t.Errorf("expected coupon redeemed once, got %d", c.Redeemed)
		}
	})

	t.Run("re-applying the same order is a no-op", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		coupons := newMemCouponRepo()
		_ = coupons.Save(ctx, nil, &model.Coupon{Code: "SAVE20", DiscountPercent: 20, Active: true})
		uc := NewEnrollmentUseCase(enrollments, coupons, newMemPaymentRepo(), memTxManager{}, newTestLogger())

		if err := uc.Apply(ctx, effect); err != nil {
			t.Fatalf("first apply: %v", err)
		}
		if err := uc.Apply(ctx, effect); err != nil {
			t.Fatalf("second apply must not fail: %v", err)
		}

		if enrollments.count() != 1 {
			t.Fatalf("expected one enrollment, got %d", enrollments.count())
		}
		c, _ := coupons.FindByCode(ctx, nil, "SAVE20")
		if c.Redeemed != 1 {
			t.Errorf("duplicate apply must not burn the coupon again, got %d", c.Redeemed)
		}
	})

	t.Run("applies without a coupon", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		uc := NewEnrollmentUseCase(enrollments, newMemCouponRepo(), newMemPaymentRepo(), memTxManager{}, newTestLogger())

		plain := effect
		plain.CouponCode = ""
		if err := uc.Apply(ctx, plain); err != nil {
			t.Fatalf("apply: %v", err)
		}
		if enrollments.count() != 1 {
			t.Fatalf("expected one enrollment, got %d", enrollments.count())
		}
	})
}

// freePaymentRow is the audit row StartCheckout records for a 100% coupon
// checkout; EnrollFree must find one before it grants anything.
func freePaymentRow(intentID string) *model.Payment {
	now := time.Now()
	return &model.Payment{
		ID:          "pay-" + intentID,
		IntentID:    intentID,
		SubjectType: model.SubjectCourse,
		SubjectID:   "course-1",
		UserID:      "user-1",
		Provider:    "mock",
		AmountCents: 0,
		Currency:    "BRL",
		CouponCode:  "FULL",
		Status:      model.PaymentStatusFree,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestEnrollmentUseCase_EnrollFree(t *testing.T) {
	ctx := context.Background()

	t.Run("free enrollment is idempotent per intent", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		coupons := newMemCouponRepo()
		payments := newMemPaymentRepo()
		_ = coupons.Save(ctx, nil, &model.Coupon{Code: "FULL", DiscountPercent: 100, Active: true})
		_ = payments.Save(ctx, nil, freePaymentRow("intent-1"))
		uc := NewEnrollmentUseCase(enrollments, coupons, payments, memTxManager{}, newTestLogger())

		for i := 0; i < 3; i++ {
			if err := uc.EnrollFree(ctx, "intent-1", "user-1", model.SubjectCourse, "course-1"); err != nil {
				t.Fatalf("enroll free attempt %d: %v", i, err)
			}
		}

		if enrollments.count() != 1 {
			t.Fatalf("expected one enrollment, got %d", enrollments.count())
		}
		c, _ := coupons.FindByCode(ctx, nil, "FULL")
		if c.Redeemed != 1 {
			t.Errorf("expected one redemption, got %d", c.Redeemed)
		}
	})

	t.Run("refuses an intent no checkout ever recorded", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		uc := NewEnrollmentUseCase(enrollments, newMemCouponRepo(), newMemPaymentRepo(), memTxManager{}, newTestLogger())

		err := uc.EnrollFree(ctx, "intent-forged", "user-1", model.SubjectCourse, "course-premium")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if enrollments.count() != 0 {
			t.Fatalf("forged request must not enroll, got %d enrollments", enrollments.count())
		}
	})

	t.Run("refuses an intent whose checkout was not free", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		payments := newMemPaymentRepo()
		paid := freePaymentRow("intent-2")
		paid.Status = model.PaymentStatusPending
		paid.AmountCents = 10000
		_ = payments.Save(ctx, nil, paid)
		uc := NewEnrollmentUseCase(enrollments, newMemCouponRepo(), payments, memTxManager{}, newTestLogger())

		err := uc.EnrollFree(ctx, "intent-2", "user-1", model.SubjectCourse, "course-1")
		if !errors.Is(err, domain.ErrInvalidIntent) {
			t.Fatalf("expected ErrInvalidIntent, got %v", err)
		}
		if enrollments.count() != 0 {
			t.Fatalf("pending checkout must not enroll for free, got %d enrollments", enrollments.count())
		}
	})

	t.Run("refuses a request that does not match the recorded checkout", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		payments := newMemPaymentRepo()
		_ = payments.Save(ctx, nil, freePaymentRow("intent-3"))
		uc := NewEnrollmentUseCase(enrollments, newMemCouponRepo(), payments, memTxManager{}, newTestLogger())

		cases := map[string]struct {
			user, subject string
		}{
			"different user":    {"user-2", "course-1"},
			"different subject": {"user-1", "course-premium"},
		}
		for name, tc := range cases {
			t.Run(name, func(t *testing.T) {
				err := uc.EnrollFree(ctx, "intent-3", tc.user, model.SubjectCourse, tc.subject)
				if !errors.Is(err, domain.ErrInvalidIntent) {
					t.Fatalf("expected ErrInvalidIntent, got %v", err)
				}
			})
		}
		if enrollments.count() != 0 {
			t.Fatalf("mismatched requests must not enroll, got %d enrollments", enrollments.count())
		}
	})

	t.Run("coupon comes from the recorded checkout, not the caller", func(t *testing.T) {
		enrollments := newMemEnrollmentRepo()
		coupons := newMemCouponRepo()
		payments := newMemPaymentRepo()
		_ = coupons.Save(ctx, nil, &model.Coupon{Code: "FULL", DiscountPercent: 100, Active: true})
		row := freePaymentRow("intent-4")
		row.CouponCode = ""
		_ = payments.Save(ctx, nil, row)
		uc := NewEnrollmentUseCase(enrollments, coupons, payments, memTxManager{}, newTestLogger())

		if err := uc.EnrollFree(ctx, "intent-4", "user-1", model.SubjectCourse, "course-1"); err != nil {
			t.Fatalf("enroll free: %v", err)
		}
		c, _ := coupons.FindByCode(ctx, nil, "FULL")
		if c.Redeemed != 0 {
			t.Errorf("no coupon on the checkout row, none may be burned; got %d", c.Redeemed)
		}
	})
}
