package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/repository"
)

var _ repository.ReconciliationRepository = (*reconciliationRepo)(nil)

type reconciliationRepo struct{ pool *pgxpool.Pool }

func NewReconciliationRepo(pool *pgxpool.Pool) *reconciliationRepo {
	return &reconciliationRepo{pool: pool}
}

func (r *reconciliationRepo) Save(ctx context.Context, tx repository.Tx, ex *model.ReconciliationException) error {
	const q = `
INSERT INTO reconciliation_exceptions (id, provider, provider_order_id, event_key, reason, detail, created_at, resolved)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8);`
	_, err := execSQL(ctx, r.pool, tx, q, ex.ID, ex.Provider, ex.ProviderOrderID, ex.EventKey, ex.Reason, ex.Detail, ex.CreatedAt, ex.Resolved)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *reconciliationRepo) ListUnresolved(ctx context.Context, tx repository.Tx, limit int) ([]*model.ReconciliationException, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT id, provider, provider_order_id, event_key, reason, detail, created_at, resolved FROM reconciliation_exceptions WHERE NOT resolved ORDER BY created_at ASC LIMIT $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.ReconciliationException
	for rows.Next() {
		ex := new(model.ReconciliationException)
		if err := rows.Scan(&ex.ID, &ex.Provider, &ex.ProviderOrderID, &ex.EventKey, &ex.Reason, &ex.Detail, &ex.CreatedAt, &ex.Resolved); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, ex)
	}
	return out, nil
}

func (r *reconciliationRepo) MarkResolved(ctx context.Context, tx repository.Tx, id string) error {
	const q = `UPDATE reconciliation_exceptions SET resolved=TRUE WHERE id=$1;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
