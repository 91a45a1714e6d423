package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/chronoshop/storefront/internal/auth/application"
	"github.com/chronoshop/storefront/internal/auth/domain"
)

type ctxKey int

const claimsKey ctxKey = iota

// ClaimsFrom returns the authenticated claims stored by RequireAuth.
func ClaimsFrom(ctx context.Context) (*application.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*application.Claims)
	return c, ok
}

type Middleware struct {
	issuer *application.TokenIssuer
}

func NewMiddleware(issuer *application.TokenIssuer) *Middleware {
	return &Middleware{issuer: issuer}
}

func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		claims, err := m.issuer.Parse(raw)
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, _ := ClaimsFrom(r.Context())
		if claims == nil || claims.Role != domain.RoleAdmin {
			http.Error(w, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(h, "Bearer ")
}
