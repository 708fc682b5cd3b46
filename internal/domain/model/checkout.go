package model

import "time"

// SubjectType discriminates what a checkout pays for.
type SubjectType string

const (
	SubjectCourse       SubjectType = "course"
	SubjectSubscription SubjectType = "subscription"
)

func ParseSubjectType(s string) (SubjectType, bool) {
	switch SubjectType(s) {
	case SubjectCourse, SubjectSubscription:
		return SubjectType(s), true
	}
	return "", false
}

// CheckoutIntent is a single user's attempt to pay for a subject. It is
// immutable once a provider order has been created against it.
type CheckoutIntent struct {
	ID          string // ULID
	SubjectType SubjectType
	SubjectID   string
	UserID      string
	AmountCents int64  // minor units, to avoid float errors
	Currency    string // ISO code, e.g. "USD"
	CouponCode  string // empty when no coupon was supplied
	Provider    string // e.g. "mercadopago"
	Description string // human-readable description shown at the gateway
	CreatedAt   time.Time
}

// CreatedOrder is the provider's reference to a freshly created payable order.
type CreatedOrder struct {
	ProviderOrderID string
	RedirectURL     string
	ClientToken     string // set by providers that hand the client a token instead of a URL
}

// CaptureStatus is the authoritative state of an order as reported by the
// provider at capture time.
type CaptureStatus string

const (
	CaptureApproved CaptureStatus = "approved"
	CaptureRejected CaptureStatus = "rejected"
	CapturePending  CaptureStatus = "pending"
)

// Capture is the uniform result of re-querying a provider for the status of a
// previously created order. RawPayload keeps the provider response for audit.
type Capture struct {
	Status      CaptureStatus
	AmountCents int64
	Currency    string
	ProviderRef string // provider-side transaction/charge reference
	// ExternalRef is the merchant reference submitted at order creation
	// (the checkout intent id), echoed back by the provider. Providers whose
	// confirmation callbacks carry a different id than CreateOrder returned
	// rely on it to tie the capture back to the local payment row.
	ExternalRef string
	RawPayload  []byte
}

// ConfirmOutcome is what a confirmation attempt resolved to.
type ConfirmOutcome string

const (
	OutcomeApplied          ConfirmOutcome = "applied"
	OutcomeAlreadyProcessed ConfirmOutcome = "already_processed"
	OutcomeRejected         ConfirmOutcome = "rejected"
	OutcomePending          ConfirmOutcome = "pending"
)
