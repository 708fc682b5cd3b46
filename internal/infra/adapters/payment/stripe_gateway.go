// File: internal/infra/adapters/payment/stripe_gateway.go
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/checkout/session"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*StripeGateway)(nil)

// StripeGateway implements adapter.PaymentProvider with hosted checkout
// sessions. Courses use one-shot payment mode; subscription subjects use
// subscription mode, where the first successful charge is the capture event.
type StripeGateway struct {
	successURL string
	cancelURL  string
}

func NewStripeGateway(apiKey, successURL, cancelURL string) (*StripeGateway, error) {
	if apiKey == "" {
		return nil, errors.New("stripe api key empty")
	}
	stripe.Key = apiKey
	return &StripeGateway{successURL: successURL, cancelURL: cancelURL}, nil
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) CreateOrder(ctx context.Context, intent *model.CheckoutIntent) (model.CreatedOrder, error) {
	if intent.AmountCents <= 0 {
		return model.CreatedOrder{}, domain.ErrInvalidIntent
	}

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(intent.Currency),
		UnitAmount: stripe.Int64(intent.AmountCents),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(intent.Description),
		},
	}
	mode := stripe.CheckoutSessionModePayment
	if intent.SubjectType == model.SubjectSubscription {
		mode = stripe.CheckoutSessionModeSubscription
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(mode)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: priceData,
			Quantity:  stripe.Int64(1),
		}},
		ClientReferenceID: stripe.String(intent.ID),
		SuccessURL:        stripe.String(g.successURL),
		CancelURL:         stripe.String(g.cancelURL),
	}
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return model.CreatedOrder{}, mapStripeErr(err)
	}
	return model.CreatedOrder{ProviderOrderID: sess.ID, RedirectURL: sess.URL}, nil
}

// CaptureOrder re-fetches the session; its payment status is authoritative.
func (g *StripeGateway) CaptureOrder(ctx context.Context, providerOrderID string) (model.Capture, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	sess, err := session.Get(providerOrderID, params)
	if err != nil {
		return model.Capture{}, mapStripeErr(err)
	}

	raw, _ := json.Marshal(sess)
	capture := model.Capture{
		AmountCents: sess.AmountTotal,
		Currency:    string(sess.Currency),
		ExternalRef: sess.ClientReferenceID,
		RawPayload:  raw,
	}
	if sess.PaymentIntent != nil {
		capture.ProviderRef = sess.PaymentIntent.ID
	} else if sess.Subscription != nil {
		capture.ProviderRef = sess.Subscription.ID
	}

	switch {
	case sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid:
		capture.Status = model.CaptureApproved
	case sess.Status == stripe.CheckoutSessionStatusExpired:
		capture.Status = model.CaptureRejected
	default:
		capture.Status = model.CapturePending
	}
	return capture, nil
}

func mapStripeErr(err error) error {
	var sErr *stripe.Error
	if errors.As(err, &sErr) {
		switch sErr.HTTPStatusCode {
		case http.StatusNotFound:
			return domain.ErrNotFound
		case http.StatusBadRequest:
			return domain.ErrInvalidIntent
		}
	}
	return fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
}
