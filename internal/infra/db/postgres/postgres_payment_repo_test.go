//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
)

func newTestPayment(provider, orderID string) *model.Payment {
	now := time.Now()
	return &model.Payment{
		ID:              uuid.NewString(),
		IntentID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		SubjectType:     model.SubjectCourse,
		SubjectID:       "course-1",
		UserID:          "user-1",
		Provider:        provider,
		ProviderOrderID: orderID,
		AmountCents:     45_000,
		Currency:        "BRL",
		Status:          model.PaymentStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestPaymentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPaymentRepo(testPool)

	t.Run("saves and finds by provider order id", func(t *testing.T) {
		cleanup(t)
		p := newTestPayment("mercadopago", "pref-1")
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := repo.FindByProviderOrderID(ctx, nil, "mercadopago", "pref-1")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if got.ID != p.ID || got.AmountCents != 45_000 || got.Status != model.PaymentStatusPending {
			t.Errorf("unexpected payment: %+v", got)
		}
	})

	t.Run("finds by intent id", func(t *testing.T) {
		cleanup(t)
		p := newTestPayment("mercadopago", "pref-2")
		p.IntentID = "01BX5ZZKBKACTAV9WEVGEMMVRZ"
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := repo.FindByIntentID(ctx, nil, "01BX5ZZKBKACTAV9WEVGEMMVRZ")
		if err != nil {
			t.Fatalf("find by intent: %v", err)
		}
		if got.ID != p.ID {
			t.Errorf("expected payment %s, got %s", p.ID, got.ID)
		}
		if _, err := repo.FindByIntentID(ctx, nil, "01BX5ZZKBKACTAV9WEVGEMMVRA"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for an unknown intent, got %v", err)
		}
	})

	t.Run("missing payment is ErrNotFound", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, "nope"); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got: %v", err)
		}
	})

	t.Run("free payments without an order id can coexist", func(t *testing.T) {
		cleanup(t)
		// The partial unique index only covers rows with a provider order id.
		a := newTestPayment("mercadopago", "")
		a.Status = model.PaymentStatusFree
		b := newTestPayment("mercadopago", "")
		b.Status = model.PaymentStatusFree
		if err := repo.Save(ctx, nil, a); err != nil {
			t.Fatalf("save a: %v", err)
		}
		if err := repo.Save(ctx, nil, b); err != nil {
			t.Fatalf("save b: %v", err)
		}
	})

	t.Run("update-if-pending moves to paid exactly once", func(t *testing.T) {
		cleanup(t)
		p := newTestPayment("stripe", "cs_1")
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatalf("save: %v", err)
		}

		ref := "ch_1"
		now := time.Now()
		changed, err := repo.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusPaid, &ref, &now)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if !changed {
			t.Fatal("expected the first update to change the row")
		}

		changed, err = repo.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusFailed, nil, nil)
		if err != nil {
			t.Fatalf("second update: %v", err)
		}
		if changed {
			t.Fatal("a paid payment must not be movable to failed")
		}

		got, _ := repo.FindByID(ctx, nil, p.ID)
		if got.Status != model.PaymentStatusPaid || got.ProviderRef != "ch_1" {
			t.Errorf("unexpected state after updates: %+v", got)
		}
	})

	t.Run("lists stale pending payments oldest first", func(t *testing.T) {
		cleanup(t)
		old := newTestPayment("stripe", "cs_old")
		old.CreatedAt = time.Now().Add(-2 * time.Hour)
		old.UpdatedAt = old.CreatedAt
		fresh := newTestPayment("stripe", "cs_new")
		if err := repo.Save(ctx, nil, old); err != nil {
			t.Fatalf("save old: %v", err)
		}
		if err := repo.Save(ctx, nil, fresh); err != nil {
			t.Fatalf("save fresh: %v", err)
		}

		got, err := repo.ListPendingOlderThan(ctx, nil, time.Now().Add(-time.Hour), 10)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 || got[0].ID != old.ID {
			t.Fatalf("expected only the stale payment, got %+v", got)
		}
	})
}

func TestEnrollmentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewEnrollmentRepo(testPool)

	newEnrollment := func(user, orderID string) *model.Enrollment {
		return &model.Enrollment{
			ID:              uuid.NewString(),
			UserID:          user,
			SubjectType:     model.SubjectCourse,
			SubjectID:       "course-1",
			ProviderOrderID: orderID,
			CreatedAt:       time.Now(),
		}
	}

	t.Run("insert is idempotent per provider order", func(t *testing.T) {
		cleanup(t)

		inserted, err := repo.Insert(ctx, nil, newEnrollment("user-1", "pref-1"))
		if err != nil {
			t.Fatalf("first insert: %v", err)
		}
		if !inserted {
			t.Fatal("expected first insert to succeed")
		}

		inserted, err = repo.Insert(ctx, nil, newEnrollment("user-1", "pref-1"))
		if err != nil {
			t.Fatalf("second insert: %v", err)
		}
		if inserted {
			t.Fatal("expected duplicate order insert to be a no-op")
		}

		got, err := repo.ListByUser(ctx, nil, "user-1")
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("expected one enrollment, got %d", len(got))
		}
	})

	t.Run("one user cannot hold the same subject twice", func(t *testing.T) {
		cleanup(t)

		if _, err := repo.Insert(ctx, nil, newEnrollment("user-1", "order-a")); err != nil {
			t.Fatalf("first insert: %v", err)
		}
		inserted, err := repo.Insert(ctx, nil, newEnrollment("user-1", "order-b"))
		if err != nil {
			t.Fatalf("second insert: %v", err)
		}
		if inserted {
			t.Fatal("expected the user/subject constraint to reject the second order")
		}
	})
}
