package repository

import (
	"context"

	"construction-course-checkout/internal/domain/model"
)

// CatalogRepository resolves purchasable subjects (courses and plans) to a
// uniform pricing view.
type CatalogRepository interface {
	FindSubject(ctx context.Context, tx Tx, subjectType model.SubjectType, id string) (*model.Subject, error)
	SaveCourse(ctx context.Context, tx Tx, c *model.Course) error
	SavePlan(ctx context.Context, tx Tx, p *model.SubscriptionPlan) error
}
