package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/repository"
)

var _ repository.CatalogRepository = (*catalogRepo)(nil)

type catalogRepo struct{ pool *pgxpool.Pool }

func NewCatalogRepo(pool *pgxpool.Pool) *catalogRepo {
	return &catalogRepo{pool: pool}
}

func (r *catalogRepo) FindSubject(ctx context.Context, tx repository.Tx, subjectType model.SubjectType, id string) (*model.Subject, error) {
	var q string
	switch subjectType {
	case model.SubjectCourse:
		q = `SELECT id, title, price_cents, currency, 0 FROM courses WHERE id=$1 AND active;`
	case model.SubjectSubscription:
		q = `SELECT id, name, price_cents, currency, interval_months FROM subscription_plans WHERE id=$1 AND active;`
	default:
		return nil, domain.ErrInvalidArgument
	}

	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	s := &model.Subject{Type: subjectType}
	if err := row.Scan(&s.ID, &s.Title, &s.PriceCents, &s.Currency, &s.IntervalMonths); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return s, nil
}

func (r *catalogRepo) SaveCourse(ctx context.Context, tx repository.Tx, c *model.Course) error {
	const q = `
INSERT INTO courses (id, title, price_cents, currency, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET title=$2, price_cents=$3, currency=$4, active=$5;`
	_, err := execSQL(ctx, r.pool, tx, q, c.ID, c.Title, c.PriceCents, c.Currency, c.Active, c.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *catalogRepo) SavePlan(ctx context.Context, tx repository.Tx, p *model.SubscriptionPlan) error {
	const q = `
INSERT INTO subscription_plans (id, name, price_cents, currency, interval_months, active, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET name=$2, price_cents=$3, currency=$4, interval_months=$5, active=$6;`
	_, err := execSQL(ctx, r.pool, tx, q, p.ID, p.Name, p.PriceCents, p.Currency, p.IntervalMonths, p.Active, p.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}
