// File: internal/infra/api/apiv1/server.go
package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/infra/api"
	"construction-course-checkout/internal/infra/metrics"
	red "construction-course-checkout/internal/infra/redis"
	"construction-course-checkout/internal/usecase"
)

// Server wires the public checkout and webhook routes to the use cases.
type Server struct {
	checkout    usecase.CheckoutUseCase
	enroll      usecase.EnrollmentUseCase
	limiter     *red.RateLimiter
	rateLimit   int
	rateWindow  time.Duration
	frontendURL string
	log         *zerolog.Logger
}

func NewServer(checkout usecase.CheckoutUseCase, enroll usecase.EnrollmentUseCase, limiter *red.RateLimiter, rateLimit int, rateWindow time.Duration, frontendURL string, logger *zerolog.Logger) *Server {
	return &Server{
		checkout:    checkout,
		enroll:      enroll,
		limiter:     limiter,
		rateLimit:   rateLimit,
		rateWindow:  rateWindow,
		frontendURL: frontendURL,
		log:         logger,
	}
}

// RegisterAPIV1 mounts all public routes on the given router.
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		// Browser-facing checkout routes get CORS; webhooks are
		// server-to-server and do not.
		r.Group(func(r chi.Router) {
			r.Use(api.CORS())
			r.Post("/checkout/{provider}/create", s.handleCheckoutCreate)
			r.Options("/checkout/{provider}/create", s.handlePreflight)
			r.Post("/checkout/free", s.handleFreeEnroll)
			r.Options("/checkout/free", s.handlePreflight)
			r.Get("/checkout/{provider}/success", s.handleCheckoutSuccess)
		})
		r.Post("/webhooks/{provider}", s.handleWebhook)
	})
}

type errorEnvelope struct {
	Error  string `json:"error"`
	Status int    `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorEnvelope{Error: msg, Status: status})
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidIntent),
		errors.Is(err, domain.ErrUnknownProvider),
		errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrProviderUnavailable),
		errors.Is(err, domain.ErrOperationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handlePreflight(w http.ResponseWriter, r *http.Request) {
	// CORS middleware already wrote the preflight response.
}

type checkoutCreateRequest struct {
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
	UserID      string `json:"user_id"`
	CouponCode  string `json:"coupon_code,omitempty"`
}

func (s *Server) handleCheckoutCreate(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	ctx := r.Context()

	var req checkoutCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, red.CheckoutCreateKey(req.UserID, provider), s.rateLimit, s.rateWindow)
		if err != nil {
			s.log.Warn().Err(err).Msg("rate limiter unavailable; allowing request")
		} else if !ok {
			writeError(w, http.StatusTooManyRequests, domain.ErrRateLimited.Error())
			return
		}
	}

	res, err := s.checkout.StartCheckout(ctx, usecase.StartCheckoutRequest{
		SubjectType: model.SubjectType(req.SubjectType),
		SubjectID:   req.SubjectID,
		UserID:      req.UserID,
		Provider:    provider,
		CouponCode:  req.CouponCode,
	})
	if err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}

	if res.FreeEnrollment {
		writeJSON(w, http.StatusOK, map[string]any{
			"free_enrollment": true,
			"coupon_code":     res.CouponCode,
			"intent_id":       res.IntentID,
		})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"redirect_url":      res.RedirectURL,
		"provider_order_id": res.ProviderOrderID,
		"payment_id":        res.PaymentID,
	})
}

type freeEnrollRequest struct {
	IntentID    string `json:"intent_id"`
	UserID      string `json:"user_id"`
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id"`
}

// handleFreeEnroll is the free-enrollment path that a 100% coupon checkout
// short-circuits into. Keyed by intent id, so reloads cannot double-enroll.
// The use case verifies the intent against the recorded free checkout; a
// request naming an intent that was never checked out free is refused.
func (s *Server) handleFreeEnroll(w http.ResponseWriter, r *http.Request) {
	var req freeEnrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	st, ok := model.ParseSubjectType(req.SubjectType)
	if !ok || req.IntentID == "" || req.UserID == "" || req.SubjectID == "" {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidIntent.Error())
		return
	}
	if err := s.enroll.EnrollFree(r.Context(), req.IntentID, req.UserID, st, req.SubjectID); err != nil {
		writeError(w, statusForError(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"enrolled": true})
}

// handleCheckoutSuccess is hit by the user's browser coming back from the
// provider. It answers with a redirect carrying a payment flag, never JSON.
// The supplied query parameters identify the order only; its status is
// re-verified against the provider inside Confirm.
func (s *Server) handleCheckoutSuccess(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	orderID := redirectOrderID(provider, r)
	if orderID == "" {
		s.redirectWithFlag(w, r, "error")
		return
	}

	start := time.Now()
	outcome, err := s.checkout.Confirm(r.Context(), provider, orderID, model.EventKey(provider, orderID))
	metrics.ConfirmDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Error().Err(err).Str("provider", provider).Str("order_id", orderID).Msg("redirect confirmation failed")
		s.redirectWithFlag(w, r, "error")
		return
	}

	switch outcome {
	case model.OutcomeApplied, model.OutcomeAlreadyProcessed:
		s.redirectWithFlag(w, r, "success")
	case model.OutcomeRejected:
		s.redirectWithFlag(w, r, "failed")
	default:
		// Confirmation may still arrive asynchronously via webhook.
		s.redirectWithFlag(w, r, "pending")
	}
}

// redirectOrderID extracts the provider order reference from the query
// string, using each provider's canonical parameter name.
func redirectOrderID(provider string, r *http.Request) string {
	q := r.URL.Query()
	switch provider {
	case "mercadopago":
		if v := q.Get("payment_id"); v != "" {
			return v
		}
	case "stripe":
		if v := q.Get("session_id"); v != "" {
			return v
		}
	}
	return q.Get("order_id")
}

func (s *Server) redirectWithFlag(w http.ResponseWriter, r *http.Request, flag string) {
	http.Redirect(w, r, s.frontendURL+"/payment?payment="+flag, http.StatusSeeOther)
}
