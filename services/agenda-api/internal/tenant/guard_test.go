package tenant

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/agendafacil/agendafacil/libs/auth"
)

func TestRequireRejectsMissingToken(t *testing.T) {
	h := Require(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "secret")

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/customers", nil)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}

func TestRequireRejectsTokenWithoutTenant(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{
		Sub: "apikey",
		Iat: time.Now().Unix(),
		Exp: time.Now().Add(time.Hour).Unix(),
	}, "secret")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	h := Require(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "secret")

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rw.Code)
	}
}

func TestRequireThreadsTenantID(t *testing.T) {
	token, err := auth.SignHS256(auth.Claims{
		Sub:      "apikey",
		TenantID: "tenant-42",
		Iat:      time.Now().Unix(),
		Exp:      time.Now().Add(time.Hour).Unix(),
	}, "secret")
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	var seen string
	h := Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ID(r.Context())
		w.WriteHeader(http.StatusOK)
	}), "secret")

	req := httptest.NewRequest(http.MethodGet, "http://example.com/api/customers", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rw := httptest.NewRecorder()
	h.ServeHTTP(rw, req)
	if rw.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rw.Code)
	}
	if seen != "tenant-42" {
		t.Fatalf("expected tenant-42 in context, got %q", seen)
	}

	reqBad := httptest.NewRequest(http.MethodGet, "http://example.com/api/customers", nil)
	reqBad.Header.Set("Authorization", "Bearer "+token)
	rwBad := httptest.NewRecorder()
	Require(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "other-secret").ServeHTTP(rwBad, reqBad)
	if rwBad.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with wrong secret, got %d", rwBad.Code)
	}
}

func TestIsolationError(t *testing.T) {
	err := ErrMissing("customers.List")
	var iso *IsolationError
	if !errors.As(err, &iso) {
		t.Fatalf("expected IsolationError, got %T", err)
	}
	if iso.Op != "customers.List" {
		t.Fatalf("unexpected op: %q", iso.Op)
	}
}
