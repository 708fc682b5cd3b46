package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/ports/repository"
)

var _ repository.ProcessedEventRepository = (*processedEventRepo)(nil)

type processedEventRepo struct{ pool *pgxpool.Pool }

func NewProcessedEventRepo(pool *pgxpool.Pool) *processedEventRepo {
	return &processedEventRepo{pool: pool}
}

// TryClaim relies on the primary key on `key`: the insert either lands
// (first claim) or hits the conflict and affects zero rows (already claimed).
// Two concurrent claims for the same key cannot both observe "not claimed".
func (r *processedEventRepo) TryClaim(ctx context.Context, tx repository.Tx, key string) (bool, error) {
	if key == "" {
		return false, domain.ErrInvalidArgument
	}
	const q = `INSERT INTO processed_events (key, created_at) VALUES ($1, NOW()) ON CONFLICT (key) DO NOTHING;`
	cmd, err := execSQL(ctx, r.pool, tx, q, key)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() == 1, nil
}
