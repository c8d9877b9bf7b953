package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/agendafacil/agendafacil/services/agenda-api/internal/model"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/tenant"
)

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.ID(r.Context())

	switch r.Method {
	case http.MethodGet:
		list, err := h.services.ListActive(r.Context(), tenantID, 0)
		if err != nil {
			h.logger.Error("service list failed", "err", err, "tenant_id", tenantID)
			http.Error(w, "failed to list services", http.StatusInternalServerError)
			return
		}
		items := make([]map[string]any, 0, len(list))
		for _, s := range list {
			items = append(items, map[string]any{
				"service_id":       s.ID,
				"name":             s.Name,
				"description":      s.Description,
				"price":            s.Price,
				"duration_minutes": s.DurationMins,
				"created_at":       s.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"services": items})

	case http.MethodPost:
		var req struct {
			Name         string `json:"name"`
			Description  string `json:"description"`
			Price        string `json:"price"`
			DurationMins int    `json:"duration_minutes"`
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
		if req.DurationMins < 0 || req.DurationMins > 24*60 {
			http.Error(w, "invalid duration_minutes", http.StatusBadRequest)
			return
		}
		if req.Price == "" {
			req.Price = "0"
		}

		s, err := h.services.Create(r.Context(), tenantID, model.Service{
			Name:         req.Name,
			Description:  strings.TrimSpace(req.Description),
			Price:        req.Price,
			DurationMins: req.DurationMins,
		})
		if err != nil {
			h.logger.Error("service create failed", "err", err, "tenant_id", tenantID)
			http.Error(w, "failed to create service", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"service_id":       s.ID,
			"name":             s.Name,
			"duration_minutes": s.DurationMins,
		})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
