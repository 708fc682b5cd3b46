// File: internal/usecase/pricing_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/repository"
)

// Compile-time check
var _ PricingUseCase = (*pricingUC)(nil)

type PricingUseCase interface {
	// Resolve returns the price of a subject with an optional coupon applied.
	// An unusable coupon degrades to the base price; it never fails checkout.
	Resolve(ctx context.Context, subjectType model.SubjectType, subjectID, couponCode string) (*model.PriceQuote, error)
	// Evaluate checks a coupon code against a base price without touching the catalog.
	Evaluate(ctx context.Context, couponCode string, baseCents int64) model.CouponEvaluation
}

type pricingUC struct {
	catalog repository.CatalogRepository
	coupons repository.CouponRepository
	log     *zerolog.Logger
}

func NewPricingUseCase(catalog repository.CatalogRepository, coupons repository.CouponRepository, logger *zerolog.Logger) *pricingUC {
	return &pricingUC{catalog: catalog, coupons: coupons, log: logger}
}

func (u *pricingUC) Resolve(ctx context.Context, subjectType model.SubjectType, subjectID, couponCode string) (*model.PriceQuote, error) {
	subject, err := u.catalog.FindSubject(ctx, nil, subjectType, subjectID)
	if err != nil {
		return nil, err
	}

	quote := &model.PriceQuote{
		AmountCents: subject.PriceCents,
		Currency:    subject.Currency,
	}
	if couponCode != "" {
		eval := u.Evaluate(ctx, couponCode, subject.PriceCents)
		if eval.Valid {
			quote.CouponCode = eval.Code
			quote.AmountCents = subject.PriceCents * int64(100-eval.DiscountPercent) / 100
		} else {
			quote.Reason = eval.Reason
		}
	}
	// A zero amount never goes through a provider, whether it came from a
	// 100% coupon or a zero-priced subject.
	if quote.AmountCents <= 0 {
		quote.AmountCents = 0
		quote.FreeEnrollment = true
	}
	return quote, nil
}

func (u *pricingUC) Evaluate(ctx context.Context, couponCode string, baseCents int64) model.CouponEvaluation {
	eval := model.CouponEvaluation{Code: couponCode}

	c, err := u.coupons.FindByCode(ctx, nil, couponCode)
	if err != nil {
		// Lookup failures degrade to full price; checkout must not block on
		// a bad or unreachable coupon.
		u.log.Warn().Err(err).Str("coupon", couponCode).Msg("coupon lookup failed; charging base price")
		eval.Reason = "invalid_coupon"
		return eval
	}
	if !c.Usable(time.Now()) {
		eval.Reason = "invalid_coupon"
		return eval
	}

	eval.Valid = true
	eval.DiscountPercent = c.DiscountPercent
	eval.FreeEnrollment = c.DiscountPercent >= 100 || baseCents == 0
	return eval
}
