package repository

import "context"

// ProcessedEventRepository is the idempotency ledger backing at-most-once
// application of payment-confirmation events.
type ProcessedEventRepository interface {
	// TryClaim atomically records key as processed. It returns true when this
	// call was the first to claim the key and false when the key was already
	// claimed. Concurrent claims for the same key must resolve to exactly one
	// true result; the implementation relies on a uniqueness constraint, not
	// on check-then-insert.
	TryClaim(ctx context.Context, tx Tx, key string) (bool, error)
}
