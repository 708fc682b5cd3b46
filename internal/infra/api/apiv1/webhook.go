// File: internal/infra/api/apiv1/webhook.go
package apiv1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/infra/metrics"
	"construction-course-checkout/internal/usecase"
)

const maxWebhookBody = 1 << 20

// webhookEvent is the provider-neutral result of parsing a notification.
type webhookEvent struct {
	// OrderID is the provider-side order reference to capture against.
	OrderID string
	// EventID is the provider's own event id, when the provider assigns one.
	EventID string
}

// handleWebhook receives provider notifications. The payload is treated as
// untrusted routing information only: it names an order, and the order's
// real status is fetched from the provider inside Confirm. Any recognized
// event gets a 200 so the provider stops redelivering; non-200 is reserved
// for transient failures where a retry can actually succeed.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	ev, ok, err := parseWebhookEvent(provider, body, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		// Recognized but not a payment event (e.g. merchant_order pings).
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	key := ev.EventID
	if key == "" {
		key = model.EventKey(provider, ev.OrderID)
	}

	start := time.Now()
	outcome, err := s.checkout.Confirm(r.Context(), provider, ev.OrderID, key)
	metrics.ConfirmDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			// The provider has no such order; redelivery cannot fix that.
			s.log.Warn().Str("provider", provider).Str("order_id", ev.OrderID).Msg("webhook for unknown order")
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		case errors.Is(err, domain.ErrUnknownProvider):
			writeError(w, http.StatusNotFound, err.Error())
		case usecase.IsRetryable(err):
			writeError(w, http.StatusBadGateway, err.Error())
		default:
			// Money may have moved without the effect applying; a
			// reconciliation exception was recorded upstream.
			s.log.Error().Err(err).Str("provider", provider).Str("order_id", ev.OrderID).Msg("webhook confirmation failed")
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": string(outcome)})
}

func parseWebhookEvent(provider string, body []byte, r *http.Request) (webhookEvent, bool, error) {
	switch provider {
	case "mercadopago":
		return parseMercadoPagoEvent(body, r)
	case "stripe":
		return parseStripeEvent(body)
	default:
		return parseGenericEvent(provider, body)
	}
}

// parseMercadoPagoEvent handles both the JSON notification body and the
// legacy query-parameter form (?type=payment&data.id=...).
func parseMercadoPagoEvent(body []byte, r *http.Request) (webhookEvent, bool, error) {
	var raw struct {
		ID   json.Number `json:"id"`
		Type string      `json:"type"`
		Data struct {
			ID json.Number `json:"id"`
		} `json:"data"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return webhookEvent{}, false, errors.New("invalid notification body")
		}
	}
	typ := raw.Type
	orderID := raw.Data.ID.String()
	if typ == "" {
		typ = r.URL.Query().Get("type")
	}
	if orderID == "" || orderID == "0" {
		orderID = r.URL.Query().Get("data.id")
	}
	if typ != "payment" {
		return webhookEvent{}, false, nil
	}
	if orderID == "" {
		return webhookEvent{}, false, errors.New("missing payment id")
	}
	ev := webhookEvent{OrderID: orderID}
	if id := raw.ID.String(); id != "" && id != "0" {
		ev.EventID = "mercadopago:evt:" + id
	}
	return ev, true, nil
}

func parseStripeEvent(body []byte) (webhookEvent, bool, error) {
	var raw struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				ID string `json:"id"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return webhookEvent{}, false, errors.New("invalid event body")
	}
	switch raw.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "checkout.session.async_payment_failed", "checkout.session.expired":
	default:
		return webhookEvent{}, false, nil
	}
	if raw.Data.Object.ID == "" {
		return webhookEvent{}, false, errors.New("missing session id")
	}
	return webhookEvent{OrderID: raw.Data.Object.ID, EventID: raw.ID}, true, nil
}

// parseGenericEvent covers the sandbox gateway and any future provider
// that posts a plain {order_id, event_id} body. The event id is prefixed
// with the provider name; claim keys from different providers must never
// collide.
func parseGenericEvent(provider string, body []byte) (webhookEvent, bool, error) {
	var raw struct {
		OrderID string `json:"order_id"`
		EventID string `json:"event_id"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return webhookEvent{}, false, errors.New("invalid event body")
	}
	if raw.OrderID == "" {
		return webhookEvent{}, false, errors.New("missing order_id")
	}
	ev := webhookEvent{OrderID: raw.OrderID}
	if raw.EventID != "" {
		ev.EventID = provider + ":evt:" + raw.EventID
	}
	return ev, true, nil
}
