// File: internal/infra/web/handlers.go
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
	"construction-course-checkout/internal/usecase"
)

type loginRequest struct {
	Password string `json:"password"`
}

// loginHandler exchanges the configured admin password for a session token.
// The token is also set as an HttpOnly cookie so browser dashboards work
// without extra plumbing.
func loginHandler(auth *AuthManager, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
		if !auth.CheckPassword(req.Password) {
			log.Warn().Str("remote", r.RemoteAddr).Msg("admin login rejected")
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		token, err := auth.Mint(w)
		if err != nil {
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"token": token})
	}
}

func logoutHandler(auth *AuthManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		auth.Clear(w)
		w.WriteHeader(http.StatusNoContent)
	}
}

// exceptionsListHandler serves the unresolved reconciliation queue.
func exceptionsListHandler(reconUC usecase.ReconciliationUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		exceptions, err := reconUC.ListExceptions(ctx, limit)
		if err != nil {
			http.Error(w, "Failed to list exceptions", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data []*model.ReconciliationException `json:"data"`
		}{
			Data: exceptions,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

func exceptionResolveHandler(reconUC usecase.ReconciliationUseCase, id string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := reconUC.Resolve(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, "Failed to resolve exception", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// stalePaymentsHandler lists orders still pending past the 'older_than'
// window (e.g. ?older_than=2h), the candidates for manual follow-up.
func stalePaymentsHandler(reconUC usecase.ReconciliationUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		olderThan, _ := time.ParseDuration(r.URL.Query().Get("older_than"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

		payments, err := reconUC.ListStalePayments(ctx, olderThan, limit)
		if err != nil {
			http.Error(w, "Failed to list pending payments", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data []*model.Payment `json:"data"`
		}{
			Data: payments,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}

// enrollmentsHandler returns a user's enrollments: /admin/api/enrollments?user_id=...
func enrollmentsHandler(enrollUC usecase.EnrollmentUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			http.Error(w, "user_id is required", http.StatusBadRequest)
			return
		}

		enrollments, err := enrollUC.ListByUser(ctx, userID)
		if err != nil {
			http.Error(w, "Failed to list enrollments", http.StatusInternalServerError)
			return
		}

		response := struct {
			Data []*model.Enrollment `json:"data"`
		}{
			Data: enrollments,
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(response)
	}
}
