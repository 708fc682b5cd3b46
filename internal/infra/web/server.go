// File: internal/infra/web/server.go
package web

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"construction-course-checkout/internal/usecase"
)

// Server is the operator-facing admin API: session login, reconciliation
// triage, and read-only views over payments and enrollments. It runs on its
// own listener, separate from the public checkout surface.
type Server struct {
	reconUC  usecase.ReconciliationUseCase
	enrollUC usecase.EnrollmentUseCase
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(
	reconUC usecase.ReconciliationUseCase,
	enrollUC usecase.EnrollmentUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		reconUC:  reconUC,
		enrollUC: enrollUC,
		auth:     auth,
		log:      logger,
	}
}

// RegisterRoutes sets up the routing for the admin API.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/admin/login", loginHandler(s.auth, s.log))
	mux.HandleFunc("/admin/logout", logoutHandler(s.auth))

	// Everything under /admin/api/ requires a valid session.
	reconRouter := s.authMiddleware(s.reconciliationRouter())
	mux.Handle("/admin/api/reconciliation", reconRouter)
	mux.Handle("/admin/api/reconciliation/", reconRouter)

	mux.Handle("/admin/api/payments/pending", s.authMiddleware(stalePaymentsHandler(s.reconUC)))
	mux.Handle("/admin/api/enrollments", s.authMiddleware(enrollmentsHandler(s.enrollUC)))
}

// authMiddleware rejects requests without a valid admin session token,
// taken from either the session cookie or a bearer header.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.auth.ParseFromRequest(r); err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// reconciliationRouter dispatches /admin/api/reconciliation and
// /admin/api/reconciliation/{id}/resolve.
func (s *Server) reconciliationRouter() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/admin/api/reconciliation")
		path = strings.Trim(path, "/")

		if path == "" {
			if r.Method != http.MethodGet {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}
			exceptionsListHandler(s.reconUC)(w, r)
			return
		}

		// Path is {id}/resolve
		if id, ok := strings.CutSuffix(path, "/resolve"); ok && r.Method == http.MethodPost {
			exceptionResolveHandler(s.reconUC, id)(w, r)
			return
		}
		http.NotFound(w, r)
	})
}
