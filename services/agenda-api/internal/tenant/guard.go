// Package tenant enforces the isolation discipline of the API boundary:
// every request must carry an authenticated tenant id, and every repository
// call takes that id as an explicit parameter. Requests without a resolvable
// tenant never reach the store.
package tenant

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/agendafacil/agendafacil/libs/auth"
)

// IsolationError reports an operation that could not be scoped to exactly
// one tenant.
type IsolationError struct {
	Op string
}

func (e *IsolationError) Error() string {
	return fmt.Sprintf("tenant isolation: %s lacks a resolvable tenant id", e.Op)
}

func ErrMissing(op string) error {
	return &IsolationError{Op: op}
}

type ctxKey int

const ctxKeyTenantID ctxKey = iota

// ID returns the authenticated tenant id stored by Require, or "".
func ID(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyTenantID).(string)
	return v
}

func WithID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKeyTenantID, tenantID)
}

// Require verifies the bearer token and stores its tenant id in the request
// context. Handlers read the id once and pass it explicitly into every
// repository call.
func Require(next http.Handler, jwtSecret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || len(strings.TrimSpace(authHeader)) <= len("Bearer ") {
			http.Error(w, "missing or invalid Authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		claims, err := auth.ParseAndVerifyHS256(token, jwtSecret)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		if strings.TrimSpace(claims.TenantID) == "" {
			http.Error(w, "token lacks tenant id", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithID(r.Context(), claims.TenantID)))
	})
}
