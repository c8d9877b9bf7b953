package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/agendafacil/agendafacil/libs/auth"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/storage"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/tenant"
)

type Handler struct {
	tenants      *storage.TenantRepository
	customers    *storage.CustomerRepository
	services     *storage.ServiceRepository
	appointments *storage.AppointmentRepository
	logger       *slog.Logger
	jwtSecret    string
	tokenTTL     time.Duration
}

func New(tenants *storage.TenantRepository, customers *storage.CustomerRepository, services *storage.ServiceRepository, appointments *storage.AppointmentRepository, logger *slog.Logger, jwtSecret string, tokenTTL time.Duration) *Handler {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &Handler{
		tenants:      tenants,
		customers:    customers,
		services:     services,
		appointments: appointments,
		logger:       logger,
		jwtSecret:    jwtSecret,
		tokenTTL:     tokenTTL,
	}
}

// CreateTenant is the unauthenticated bootstrap endpoint. It returns the
// tenant's API key exactly once.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Phone       string `json:"phone"`
		Email       string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	t, apiKey, err := h.tenants.Create(r.Context(), req.Name, strings.TrimSpace(req.Description), strings.TrimSpace(req.Phone), strings.TrimSpace(req.Email))
	if err != nil {
		h.logger.Error("tenant create failed", "err", err)
		http.Error(w, "failed to create tenant", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tenant_id":  t.ID,
		"name":       t.Name,
		"api_key":    apiKey,
		"created_at": t.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// Token exchanges a tenant id + API key for a short-lived tenant JWT.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		TenantID string `json:"tenant_id"`
		APIKey   string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.TenantID = strings.TrimSpace(req.TenantID)
	if req.TenantID == "" || req.APIKey == "" {
		http.Error(w, "tenant_id and api_key are required", http.StatusBadRequest)
		return
	}

	if err := h.tenants.VerifyAPIKey(r.Context(), req.TenantID, req.APIKey); err != nil {
		if errors.Is(err, storage.ErrInvalidAPIKey) {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		h.logger.Error("api key verification failed", "err", err)
		http.Error(w, "failed to verify credentials", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:      "apikey",
		TenantID: req.TenantID,
		Role:     "tenant",
		Iat:      now.Unix(),
		Exp:      now.Add(h.tokenTTL).Unix(),
	}, h.jwtSecret)
	if err != nil {
		h.logger.Error("token signing failed", "err", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"token":      token,
		"expires_at": now.Add(h.tokenTTL).UTC().Format(time.RFC3339),
	})
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenant.ID(r.Context())
	t, err := h.tenants.Get(r.Context(), tenantID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "tenant not found", http.StatusNotFound)
			return
		}
		h.logger.Error("tenant lookup failed", "err", err, "tenant_id", tenantID)
		http.Error(w, "failed to load tenant", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"tenant_id":   t.ID,
		"name":        t.Name,
		"description": t.Description,
		"phone":       t.Phone,
		"email":       t.Email,
		"is_active":   t.IsActive,
		"created_at":  t.CreatedAt.UTC().Format(time.RFC3339),
	})
}
