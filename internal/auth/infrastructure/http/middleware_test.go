package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chronoshop/storefront/internal/auth/application"
	"github.com/chronoshop/storefront/internal/auth/domain"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuthRejectsMissingAndBadTokens(t *testing.T) {
	mw := NewMiddleware(application.NewTokenIssuer("secret", time.Hour))
	h := mw.RequireAuth(okHandler())

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status = %d, want 401", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer not-a-jwt")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", w.Code)
	}
}

func TestRequireAdminRoles(t *testing.T) {
	issuer := application.NewTokenIssuer("secret", time.Hour)
	mw := NewMiddleware(issuer)
	h := mw.RequireAdmin(okHandler())

	userToken, err := issuer.Issue(domain.User{ID: "u1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("issue user token: %v", err)
	}
	adminToken, err := issuer.Issue(domain.User{ID: "a1", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue admin token: %v", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+userToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Fatalf("user role: status = %d, want 403", w.Code)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+adminToken)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("admin role: status = %d, want 200", w.Code)
	}
}
