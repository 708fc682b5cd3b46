package model

import "time"

// ReconciliationException records a confirmed payment whose downstream effect
// could not be applied. Money has moved but the enrollment has not; these rows
// are surfaced to operators for manual resolution.
type ReconciliationException struct {
	ID              string // UUID
	Provider        string
	ProviderOrderID string
	EventKey        string
	Reason          string // bounded, e.g. "effect_applier_failure"
	Detail          string // underlying error text
	CreatedAt       time.Time
	Resolved        bool
}
