package model

import "time"

type PaymentStatus string

const (
	PaymentStatusFree    PaymentStatus = "free"    // coupon collapsed the price to zero; no provider order
	PaymentStatusPending PaymentStatus = "pending" // provider order created; awaiting capture
	PaymentStatusPaid    PaymentStatus = "paid"    // capture approved at provider
	PaymentStatusFailed  PaymentStatus = "failed"  // capture rejected or order expired
)

// Payment is the audit trail of a checkout intent and the provider order
// created against it. The provider owns the authoritative order state; this
// row only mirrors what capture calls reported.
type Payment struct {
	ID              string // UUID
	IntentID        string // ULID of the checkout intent
	SubjectType     SubjectType
	SubjectID       string
	UserID          string
	Provider        string // e.g. "mercadopago", "stripe"
	ProviderOrderID string // empty for free enrollments
	AmountCents     int64
	Currency        string
	CouponCode      string
	Status          PaymentStatus
	ProviderRef     string // provider transaction reference set on capture
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PaidAt          *time.Time
}
