// File: internal/infra/adapters/payment/mercadopago_gateway.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/domain/ports/adapter"
)

var _ adapter.PaymentProvider = (*MercadoPagoGateway)(nil)

// MercadoPagoGateway implements adapter.PaymentProvider over the checkout
// preferences API for order creation and the payments API for capture.
//
// Callbacks carry the MercadoPago payment id (query param `payment_id`,
// webhook `data.id`) while creation returns a preference id; CaptureOrder
// accepts either and the resulting Capture carries the external_reference
// (the intent id) so the caller can match its own records.
type MercadoPagoGateway struct {
	accessToken string
	baseURL     string
	successURL  string
	failureURL  string
	notifyURL   string
	client      *http.Client
}

func NewMercadoPagoGateway(accessToken, baseURL, successURL, failureURL, notifyURL string) (*MercadoPagoGateway, error) {
	if accessToken == "" {
		return nil, errors.New("mercadopago access token empty")
	}
	if baseURL == "" {
		baseURL = "https://api.mercadopago.com"
	}
	return &MercadoPagoGateway{
		accessToken: accessToken,
		baseURL:     baseURL,
		successURL:  successURL,
		failureURL:  failureURL,
		notifyURL:   notifyURL,
		client:      &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *MercadoPagoGateway) Name() string { return "mercadopago" }

// CreateOrder posts a checkout preference and returns its init point as the
// redirect URL. The intent id travels as external_reference so callbacks can
// be tied back to the checkout attempt.
func (g *MercadoPagoGateway) CreateOrder(ctx context.Context, intent *model.CheckoutIntent) (model.CreatedOrder, error) {
	if intent.AmountCents <= 0 {
		return model.CreatedOrder{}, domain.ErrInvalidIntent
	}
	payload := map[string]any{
		"items": []map[string]any{{
			"id":          intent.SubjectID,
			"title":       intent.Description,
			"quantity":    1,
			"unit_price":  float64(intent.AmountCents) / 100,
			"currency_id": intent.Currency,
		}},
		"external_reference": intent.ID,
		"back_urls": map[string]string{
			"success": g.successURL,
			"failure": g.failureURL,
			"pending": g.successURL,
		},
		"notification_url": g.notifyURL,
		"auto_return":      "approved",
	}
	b, _ := json.Marshal(payload)
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/checkout/preferences", bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return model.CreatedOrder{}, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusBadRequest {
		return model.CreatedOrder{}, domain.ErrInvalidIntent
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.CreatedOrder{}, fmt.Errorf("%w: preference http %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	var out struct {
		ID        string `json:"id"`
		InitPoint string `json:"init_point"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.CreatedOrder{}, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	if out.ID == "" || out.InitPoint == "" {
		return model.CreatedOrder{}, fmt.Errorf("%w: empty preference response", domain.ErrProviderUnavailable)
	}
	return model.CreatedOrder{ProviderOrderID: out.ID, RedirectURL: out.InitPoint}, nil
}

// CaptureOrder fetches the authoritative payment state. Callback-supplied
// status fields are never trusted; this lookup is.
//
// The id may also be a preference id (the value stored at creation time, as
// used by the stale-payment reconciler). The payments endpoint knows nothing
// about preferences, so a 404 there falls back to resolving the preference's
// external_reference and searching payments by it.
func (g *MercadoPagoGateway) CaptureOrder(ctx context.Context, providerOrderID string) (model.Capture, error) {
	capture, err := g.capturePayment(ctx, providerOrderID)
	if !errors.Is(err, domain.ErrNotFound) {
		return capture, err
	}

	ref, prefErr := g.preferenceReference(ctx, providerOrderID)
	if prefErr != nil || ref == "" {
		return model.Capture{}, domain.ErrNotFound
	}
	return g.searchPaymentByReference(ctx, ref)
}

func (g *MercadoPagoGateway) capturePayment(ctx context.Context, paymentID string) (model.Capture, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/v1/payments/"+paymentID, nil)
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return model.Capture{}, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return model.Capture{}, domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Capture{}, fmt.Errorf("%w: payment lookup http %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.Capture{}, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	var out mpPayment
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.Capture{}, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	return out.toCapture(raw), nil
}

type mpPayment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	TransactionAmount float64 `json:"transaction_amount"`
	CurrencyID        string  `json:"currency_id"`
	ExternalReference string  `json:"external_reference"`
}

func (p mpPayment) toCapture(raw []byte) model.Capture {
	capture := model.Capture{
		AmountCents: int64(p.TransactionAmount * 100),
		Currency:    p.CurrencyID,
		ProviderRef: fmt.Sprintf("%d", p.ID),
		ExternalRef: p.ExternalReference,
		RawPayload:  raw,
	}
	switch p.Status {
	case "approved":
		capture.Status = model.CaptureApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		capture.Status = model.CaptureRejected
	default:
		// pending, in_process, authorized
		capture.Status = model.CapturePending
	}
	return capture
}

// preferenceReference fetches a checkout preference and returns its
// external_reference (the intent id submitted at creation).
func (g *MercadoPagoGateway) preferenceReference(ctx context.Context, preferenceID string) (string, error) {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/checkout/preferences/"+preferenceID, nil)
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", domain.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: preference lookup http %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}
	var out struct {
		ExternalReference string `json:"external_reference"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	return out.ExternalReference, nil
}

// searchPaymentByReference finds the payment created for an external
// reference. A reference can accumulate several attempts; an approved one
// wins, otherwise the newest result stands.
func (g *MercadoPagoGateway) searchPaymentByReference(ctx context.Context, ref string) (model.Capture, error) {
	u := g.baseURL + "/v1/payments/search?sort=date_created&criteria=desc&external_reference=" + url.QueryEscape(ref)
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	req.Header.Set("Authorization", "Bearer "+g.accessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return model.Capture{}, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.Capture{}, fmt.Errorf("%w: payment search http %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var out struct {
		Results []mpPayment `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return model.Capture{}, fmt.Errorf("%w: %s", domain.ErrProviderUnavailable, err)
	}
	if len(out.Results) == 0 {
		return model.Capture{}, domain.ErrNotFound
	}
	pick := out.Results[0]
	for _, res := range out.Results {
		if res.Status == "approved" {
			pick = res
			break
		}
	}
	return pick.toCapture(nil), nil
}
