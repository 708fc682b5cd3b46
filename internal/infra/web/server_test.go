//go:build !integration

// File: internal/infra/web/server_test.go
package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"construction-course-checkout/internal/domain"
	"construction-course-checkout/internal/domain/model"
)

//
// ---------------- stubs ----------------
//

type stubReconUC struct {
	exceptions []*model.ReconciliationException
	resolved   []string
	stale      []*model.Payment
}

func (s *stubReconUC) ListExceptions(ctx context.Context, limit int) ([]*model.ReconciliationException, error) {
	return s.exceptions, nil
}

func (s *stubReconUC) Resolve(ctx context.Context, id string) error {
	for _, ex := range s.exceptions {
		if ex.ID == id {
			s.resolved = append(s.resolved, id)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *stubReconUC) ListStalePayments(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Payment, error) {
	return s.stale, nil
}

type stubEnrollUC struct {
	byUser map[string][]*model.Enrollment
}

func (s *stubEnrollUC) Apply(ctx context.Context, effect model.Effect) error { return nil }

func (s *stubEnrollUC) EnrollFree(ctx context.Context, intentID, userID string, subjectType model.SubjectType, subjectID string) error {
	return nil
}

func (s *stubEnrollUC) ListByUser(ctx context.Context, userID string) ([]*model.Enrollment, error) {
	return s.byUser[userID], nil
}

func newTestMux(recon *stubReconUC, enroll *stubEnrollUC) (*http.ServeMux, *AuthManager) {
	logger := zerolog.New(io.Discard)
	auth := NewAuthManager("hunter2", "test-secret", false, "", 30*time.Minute)
	srv := NewServer(recon, enroll, auth, &logger)
	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)
	return mux, auth
}

func login(t *testing.T, mux *http.ServeMux, password string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"password": password})
	req := httptest.NewRequest(http.MethodPost, "/admin/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func authedGet(t *testing.T, mux *http.ServeMux, token, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

//
// ---------------- tests ----------------
//

func TestAdminLogin(t *testing.T) {
	mux, _ := newTestMux(&stubReconUC{}, &stubEnrollUC{})

	t.Run("correct password mints a session", func(t *testing.T) {
		w := login(t, mux, "hunter2")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp["token"] == "" {
			t.Fatal("expected a session token")
		}
		found := false
		for _, c := range w.Result().Cookies() {
			if c.Name == "admin_session" && c.Value != "" && c.HttpOnly {
				found = true
			}
		}
		if !found {
			t.Error("expected HttpOnly admin_session cookie")
		}
	})

	t.Run("wrong password is forbidden", func(t *testing.T) {
		w := login(t, mux, "wrong")
		if w.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", w.Code)
		}
	})

	t.Run("GET is not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/login", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", w.Code)
		}
	})
}

func TestAdminAuthMiddleware(t *testing.T) {
	mux, _ := newTestMux(&stubReconUC{}, &stubEnrollUC{})

	t.Run("no token is unauthorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/api/reconciliation", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		w := authedGet(t, mux, "not-a-jwt", "/admin/api/reconciliation")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})

	t.Run("token minted by a different secret is rejected", func(t *testing.T) {
		other := NewAuthManager("hunter2", "other-secret", false, "", time.Minute)
		rec := httptest.NewRecorder()
		tok, err := other.Mint(rec)
		if err != nil {
			t.Fatalf("mint: %v", err)
		}
		w := authedGet(t, mux, tok, "/admin/api/reconciliation")
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", w.Code)
		}
	})
}

func TestReconciliationEndpoints(t *testing.T) {
	recon := &stubReconUC{
		exceptions: []*model.ReconciliationException{
			{ID: "ex-1", Provider: "mercadopago", ProviderOrderID: "777", Reason: "effect_applier_failure"},
		},
	}
	mux, _ := newTestMux(recon, &stubEnrollUC{})

	var token string
	{
		w := login(t, mux, "hunter2")
		var resp map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		token = resp["token"]
	}

	t.Run("lists unresolved exceptions", func(t *testing.T) {
		w := authedGet(t, mux, token, "/admin/api/reconciliation")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		var resp struct {
			Data []*model.ReconciliationException `json:"data"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if len(resp.Data) != 1 || resp.Data[0].ID != "ex-1" {
			t.Fatalf("unexpected payload: %s", w.Body.String())
		}
	})

	t.Run("resolves an exception", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/api/reconciliation/ex-1/resolve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
		if len(recon.resolved) != 1 || recon.resolved[0] != "ex-1" {
			t.Errorf("expected ex-1 resolved, got %v", recon.resolved)
		}
	})

	t.Run("resolving a missing exception is 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/admin/api/reconciliation/ex-404/resolve", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", w.Code)
		}
	})

	t.Run("stale payments endpoint", func(t *testing.T) {
		recon.stale = []*model.Payment{{ID: "p-1", Status: model.PaymentStatusPending}}
		w := authedGet(t, mux, token, "/admin/api/payments/pending?older_than=2h")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
		var resp struct {
			Data []*model.Payment `json:"data"`
		}
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if len(resp.Data) != 1 || resp.Data[0].ID != "p-1" {
			t.Fatalf("unexpected payload: %s", w.Body.String())
		}
	})

	t.Run("enrollments require a user id", func(t *testing.T) {
		w := authedGet(t, mux, token, "/admin/api/enrollments")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", w.Code)
		}
	})

	t.Run("enrollments by user", func(t *testing.T) {
		enroll := &stubEnrollUC{byUser: map[string][]*model.Enrollment{
			"user-1": {{ID: "e-1", UserID: "user-1", SubjectType: model.SubjectCourse, SubjectID: "course-1"}},
		}}
		mux2, _ := newTestMux(&stubReconUC{}, enroll)
		w := login(t, mux2, "hunter2")
		var resp map[string]string
		_ = json.Unmarshal(w.Body.Bytes(), &resp)

		w2 := authedGet(t, mux2, resp["token"], "/admin/api/enrollments?user_id=user-1")
		if w2.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w2.Code)
		}
		var listResp struct {
			Data []*model.Enrollment `json:"data"`
		}
		_ = json.Unmarshal(w2.Body.Bytes(), &listResp)
		if len(listResp.Data) != 1 || listResp.Data[0].ID != "e-1" {
			t.Fatalf("unexpected payload: %s", w2.Body.String())
		}
	})
}
