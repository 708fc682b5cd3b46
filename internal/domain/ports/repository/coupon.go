package repository

import (
	"context"

	"construction-course-checkout/internal/domain/model"
)

type CouponRepository interface {
	FindByCode(ctx context.Context, tx Tx, code string) (*model.Coupon, error)
	Save(ctx context.Context, tx Tx, c *model.Coupon) error
	// MarkRedeemed bumps the redemption counter. Invoked only after the
	// enrollment effect has been applied, never during price resolution.
	MarkRedeemed(ctx context.Context, tx Tx, code string) error
}
