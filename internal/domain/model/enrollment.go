package model

import "time"

// Enrollment is the downstream effect of a confirmed payment: course access
// or an activated subscription. The unique provider_order_id constraint makes
// applying the effect idempotent per provider order.
type Enrollment struct {
	ID              string // UUID
	UserID          string
	SubjectType     SubjectType
	SubjectID       string
	ProviderOrderID string // empty for free enrollments; those use the intent id
	CouponCode      string
	CreatedAt       time.Time
}

// Effect is the payload handed to the effect applier on confirmed payment.
type Effect struct {
	UserID          string
	SubjectType     SubjectType
	SubjectID       string
	ProviderOrderID string
	CouponCode      string
}
