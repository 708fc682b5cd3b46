package repository

import (
	"context"

	"construction-course-checkout/internal/domain/model"
)

type EnrollmentRepository interface {
	// Insert stores the enrollment. It returns false when an enrollment for
	// the same provider order already exists (insert-if-absent), which makes
	// effect application idempotent per provider order.
	Insert(ctx context.Context, tx Tx, e *model.Enrollment) (bool, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Enrollment, error)
}
