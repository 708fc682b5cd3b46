package repository

import (
	"context"

	"construction-course-checkout/internal/domain/model"
)

type ReconciliationRepository interface {
	Save(ctx context.Context, tx Tx, ex *model.ReconciliationException) error
	ListUnresolved(ctx context.Context, tx Tx, limit int) ([]*model.ReconciliationException, error)
	MarkResolved(ctx context.Context, tx Tx, id string) error
}
