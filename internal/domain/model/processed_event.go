package model

import "time"

// ProcessedEvent is an append-only record that a payment-confirmation event
// has been applied. Presence of a record for a key is the sole authority for
// "already processed"; records are never updated or deleted.
type ProcessedEvent struct {
	Key       string // e.g. "mercadopago:12345" or a provider event id
	CreatedAt time.Time
}

// EventKey derives the fallback idempotency key for a provider order.
// Webhook handlers prefer the provider's own event id when one is present;
// redirect confirmations always use this form so both paths share a key space.
func EventKey(provider, providerOrderID string) string {
	return provider + ":" + providerOrderID
}
