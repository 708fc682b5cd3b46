package adapter

import (
	"context"

	"construction-course-checkout/internal/domain/model"
)

// EffectApplier applies the downstream effect of a confirmed payment:
// enrollment creation or subscription activation. Implementations must be
// idempotent per ProviderOrderID so that a claim committed before Apply can
// never double-enroll, even if Apply is retried after a partial failure.
type EffectApplier interface {
	Apply(ctx context.Context, effect model.Effect) error
}
