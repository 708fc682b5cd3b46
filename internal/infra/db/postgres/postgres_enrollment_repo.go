package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct{ pool *pgxpool.Pool }

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

// Insert is an insert-if-absent: the unique constraints on provider_order_id
// and (user_id, subject_type, subject_id) make repeated application a no-op.
func (r *enrollmentRepo) Insert(ctx context.Context, tx repository.Tx, e *model.Enrollment) (bool, error) {
	const q = `
INSERT INTO enrollments (id, user_id, subject_type, subject_id, provider_order_id, coupon_code, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, e.ID, e.UserID, e.SubjectType, e.SubjectID, nullable(e.ProviderOrderID), nullable(e.CouponCode), e.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *enrollmentRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Enrollment, error) {
	const q = `SELECT id, user_id, subject_type, subject_id, provider_order_id, coupon_code, created_at FROM enrollments WHERE user_id=$1 ORDER BY created_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Enrollment
	for rows.Next() {
		e := new(model.Enrollment)
		var orderID, couponCode *string
		if err := rows.Scan(&e.ID, &e.UserID, &e.SubjectType, &e.SubjectID, &orderID, &couponCode, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		if orderID != nil {
			e.ProviderOrderID = *orderID
		}
		if couponCode != nil {
			e.CouponCode = *couponCode
		}
		out = append(out, e)
	}
	return out, nil
}
