// File: internal/usecase/checkout_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/adapter"
	"construction-course-checkout/internal/domain/ports/repository"
	"construction-course-checkout/internal/infra/metrics"
)

// Compile-time check
var _ CheckoutUseCase = (*checkoutUC)(nil)

type StartCheckoutRequest struct {
	SubjectType model.SubjectType
	SubjectID   string
	UserID      string
	Provider    string
	CouponCode  string
}

type StartCheckoutResult struct {
	// FreeEnrollment signals the caller to take the free-enrollment path;
	// no provider order was created.
	FreeEnrollment  bool
	CouponCode      string
	IntentID        string
	PaymentID       string
	ProviderOrderID string
	RedirectURL     string
	ClientToken     string
}

type CheckoutUseCase interface {
	// StartCheckout resolves price/coupon and creates a provider order, or
	// short-circuits into the free-enrollment path on a 100% coupon.
	StartCheckout(ctx context.Context, req StartCheckoutRequest) (*StartCheckoutResult, error)
	// Confirm idempotently applies a payment-confirmation event. The capture
	// call against the provider is the only status authority; the event key
	// guards at-most-once effect application.
	Confirm(ctx context.Context, provider, providerOrderID, eventKey string) (model.ConfirmOutcome, error)
}

type checkoutUC struct {
	pricing   PricingUseCase
	providers map[string]adapter.PaymentProvider
	payments  repository.PaymentRepository
	events    repository.ProcessedEventRepository
	recons    repository.ReconciliationRepository
	applier   adapter.EffectApplier
	timeout   time.Duration
	log       *zerolog.Logger
	entropy   *ulid.MonotonicEntropy
}

func NewCheckoutUseCase(
	pricing PricingUseCase,
	providers map[string]adapter.PaymentProvider,
	payments repository.PaymentRepository,
	events repository.ProcessedEventRepository,
	recons repository.ReconciliationRepository,
	applier adapter.EffectApplier,
	providerTimeout time.Duration,
	logger *zerolog.Logger,
) *checkoutUC {
	if providerTimeout <= 0 {
		providerTimeout = 15 * time.Second
	}
	return &checkoutUC{
		pricing:   pricing,
		providers: providers,
		payments:  payments,
		events:    events,
		recons:    recons,
		applier:   applier,
		timeout:   providerTimeout,
		log:       logger,
		entropy:   ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

func (u *checkoutUC) StartCheckout(ctx context.Context, req StartCheckoutRequest) (*StartCheckoutResult, error) {
	if req.SubjectID == "" || req.UserID == "" {
		return nil, domain.ErrInvalidIntent
	}
	if _, ok := model.ParseSubjectType(string(req.SubjectType)); !ok {
		return nil, domain.ErrInvalidIntent
	}

	quote, err := u.pricing.Resolve(ctx, req.SubjectType, req.SubjectID, req.CouponCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	intent := &model.CheckoutIntent{
		ID:          ulid.MustNew(ulid.Timestamp(now), u.entropy).String(),
		SubjectType: req.SubjectType,
		SubjectID:   req.SubjectID,
		UserID:      req.UserID,
		AmountCents: quote.AmountCents,
		Currency:    quote.Currency,
		CouponCode:  quote.CouponCode,
		Provider:    req.Provider,
		Description: fmt.Sprintf("%s %s", req.SubjectType, req.SubjectID),
		CreatedAt:   now,
	}

	if quote.FreeEnrollment {
		// Never create a $0 order at a provider; several reject or mishandle
		// zero-amount charges. The caller takes the free-enrollment path.
		p := paymentFromIntent(intent, model.PaymentStatusFree)
		if err := u.payments.Save(ctx, nil, p); err != nil {
			return nil, err
		}
		metrics.IncCheckout(req.Provider, "free")
		return &StartCheckoutResult{
			FreeEnrollment: true,
			CouponCode:     quote.CouponCode,
			IntentID:       intent.ID,
			PaymentID:      p.ID,
		}, nil
	}

	gw, ok := u.providers[req.Provider]
	if !ok {
		return nil, domain.ErrUnknownProvider
	}

	cctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	start := time.Now()
	created, err := gw.CreateOrder(cctx, intent)
	metrics.ObserveProviderRequest(req.Provider, "create", time.Since(start), err)
	if err != nil {
		metrics.IncCheckout(req.Provider, "provider_error")
		return nil, err
	}

	p := paymentFromIntent(intent, model.PaymentStatusPending)
	p.ProviderOrderID = created.ProviderOrderID
	if err := u.payments.Save(ctx, nil, p); err != nil {
		// The provider order exists but has no local audit row; it will never
		// be confirmed and simply expires on the provider side.
		u.log.Error().Err(err).Str("provider_order_id", created.ProviderOrderID).Msg("failed to record created order")
		return nil, err
	}
	metrics.IncCheckout(req.Provider, "created")

	return &StartCheckoutResult{
		CouponCode:      quote.CouponCode,
		IntentID:        intent.ID,
		PaymentID:       p.ID,
		ProviderOrderID: created.ProviderOrderID,
		RedirectURL:     created.RedirectURL,
		ClientToken:     created.ClientToken,
	}, nil
}

func (u *checkoutUC) Confirm(ctx context.Context, provider, providerOrderID, eventKey string) (model.ConfirmOutcome, error) {
	gw, ok := u.providers[provider]
	if !ok {
		return "", domain.ErrUnknownProvider
	}
	if providerOrderID == "" || eventKey == "" {
		return "", domain.ErrInvalidArgument
	}

	// Capture first. The claim must not be taken before the capture resolves:
	// a timed-out capture has to stay retryable by the next delivery.
	cctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()
	start := time.Now()
	capture, err := gw.CaptureOrder(cctx, providerOrderID)
	metrics.ObserveProviderRequest(provider, "capture", time.Since(start), err)
	if err != nil {
		return "", err
	}

	claimed, err := u.events.TryClaim(ctx, nil, eventKey)
	if err != nil {
		return "", fmt.Errorf("claim %s: %w", eventKey, err)
	}
	if !claimed {
		metrics.IncConfirm(provider, string(model.OutcomeAlreadyProcessed))
		return model.OutcomeAlreadyProcessed, nil
	}

	switch capture.Status {
	case model.CaptureApproved:
		if err := u.applyApproved(ctx, provider, providerOrderID, eventKey, capture); err != nil {
			return "", err
		}
		metrics.IncConfirm(provider, string(model.OutcomeApplied))
		return model.OutcomeApplied, nil
	case model.CaptureRejected:
		u.markFailed(ctx, provider, providerOrderID, capture.ExternalRef)
		metrics.IncConfirm(provider, string(model.OutcomeRejected))
		return model.OutcomeRejected, nil
	default:
		// Pending: the claim on this exact event stands, but the order stays
		// awaitable via a later event with a different key.
		metrics.IncConfirm(provider, string(model.OutcomePending))
		return model.OutcomePending, nil
	}
}

func (u *checkoutUC) applyApproved(ctx context.Context, provider, providerOrderID, eventKey string, capture model.Capture) error {
	p, err := u.findPayment(ctx, provider, providerOrderID, capture.ExternalRef)
	if err != nil {
		u.recordException(ctx, provider, providerOrderID, eventKey, "unknown_order", err.Error())
		return fmt.Errorf("%w: no payment record for order %s", domain.ErrEffectApplier, providerOrderID)
	}

	now := time.Now()
	ref := capture.ProviderRef
	if _, err := u.payments.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusPaid, &ref, &now); err != nil {
		u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("failed to mark payment paid")
	}

	effect := model.Effect{
		UserID:          p.UserID,
		SubjectType:     p.SubjectType,
		SubjectID:       p.SubjectID,
		ProviderOrderID: providerOrderID,
		CouponCode:      p.CouponCode,
	}
	if err := u.applier.Apply(ctx, effect); err != nil {
		// Money has moved but the effect has not. The claim is committed and
		// the applier is idempotent per provider order, so this is recorded
		// for manual reconciliation rather than retried via provider capture.
		u.recordException(ctx, provider, providerOrderID, eventKey, "effect_applier_failure", err.Error())
		metrics.IncReconciliationException(provider)
		return fmt.Errorf("%w: %s", domain.ErrEffectApplier, err)
	}
	metrics.AddCheckoutRevenue(capture.Currency, capture.AmountCents)
	return nil
}

// findPayment locates the audit row for a captured order. The id in the
// confirmation event is not always the id CreateOrder returned (MercadoPago
// callbacks carry the payment id, while creation returns a preference id),
// so a miss falls back to the capture's external reference, which is the
// intent id submitted at creation.
func (u *checkoutUC) findPayment(ctx context.Context, provider, providerOrderID, externalRef string) (*model.Payment, error) {
	p, err := u.payments.FindByProviderOrderID(ctx, nil, provider, providerOrderID)
	if err == nil || !errors.Is(err, domain.ErrNotFound) || externalRef == "" {
		return p, err
	}
	p, err = u.payments.FindByIntentID(ctx, nil, externalRef)
	if err != nil {
		return nil, err
	}
	if p.Provider != provider {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (u *checkoutUC) markFailed(ctx context.Context, provider, providerOrderID, externalRef string) {
	p, err := u.findPayment(ctx, provider, providerOrderID, externalRef)
	if err != nil {
		return
	}
	if _, err := u.payments.UpdateStatusIfPending(ctx, nil, p.ID, model.PaymentStatusFailed, nil, nil); err != nil {
		u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("failed to mark payment failed")
	}
}

func (u *checkoutUC) recordException(ctx context.Context, provider, providerOrderID, eventKey, reason, detail string) {
	ex := &model.ReconciliationException{
		ID:              uuid.NewString(),
		Provider:        provider,
		ProviderOrderID: providerOrderID,
		EventKey:        eventKey,
		Reason:          reason,
		Detail:          detail,
		CreatedAt:       time.Now(),
	}
	if err := u.recons.Save(ctx, nil, ex); err != nil {
		u.log.Error().Err(err).Str("provider_order_id", providerOrderID).Str("reason", reason).Msg("failed to record reconciliation exception")
	}
}

func paymentFromIntent(intent *model.CheckoutIntent, status model.PaymentStatus) *model.Payment {
	now := time.Now()
	return &model.Payment{
		ID:          uuid.NewString(),
		IntentID:    intent.ID,
		SubjectType: intent.SubjectType,
		SubjectID:   intent.SubjectID,
		UserID:      intent.UserID,
		Provider:    intent.Provider,
		AmountCents: intent.AmountCents,
		Currency:    intent.Currency,
		CouponCode:  intent.CouponCode,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsRetryable reports whether a confirmation error should be surfaced to the
// provider as a non-200 so its webhook retry mechanism re-delivers the event.
func IsRetryable(err error) bool {
	return errors.Is(err, domain.ErrProviderUnavailable) || errors.Is(err, domain.ErrOperationFailed)
}
