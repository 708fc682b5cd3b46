package model

import "time"

// Coupon grants a percentage discount on a subject's base price.
// A 100% coupon collapses checkout into the free-enrollment path.
type Coupon struct {
	Code            string
	DiscountPercent int
	ExpiresAt       *time.Time // nil means no expiry
	MaxRedemptions  int        // zero means unlimited
	Redeemed        int
	Active          bool
	CreatedAt       time.Time
}

// Usable reports whether the coupon can still be applied at the given time.
func (c *Coupon) Usable(now time.Time) bool {
	if c == nil || !c.Active {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	if c.MaxRedemptions > 0 && c.Redeemed >= c.MaxRedemptions {
		return false
	}
	return c.DiscountPercent > 0 && c.DiscountPercent <= 100
}

// CouponEvaluation is the outcome of resolving a coupon against a base price.
// Computed fresh per checkout attempt; never persisted.
type CouponEvaluation struct {
	Code            string
	Valid           bool
	DiscountPercent int
	FreeEnrollment  bool
	Reason          string // e.g. "invalid_coupon" when the code degraded to full price
}

// PriceQuote is what the pricing resolver returns to the orchestrator.
type PriceQuote struct {
	AmountCents    int64
	Currency       string
	FreeEnrollment bool
	CouponCode     string // only set when the coupon actually applied
	Reason         string
}
