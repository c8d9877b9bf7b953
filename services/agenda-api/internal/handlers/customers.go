package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/agendafacil/agendafacil/services/agenda-api/internal/model"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/storage"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/tenant"
)

type customerItem struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func customerToItem(c model.Customer) customerItem {
	return customerItem{
		CustomerID: c.ID,
		Name:       c.Name,
		Phone:      c.Phone,
		Email:      c.Email,
		Notes:      c.Notes,
		CreatedAt:  c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// Customers serves list (GET, optional ?id= for a single row), create (POST)
// and update (PUT, id in body).
func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.ID(r.Context())

	switch r.Method {
	case http.MethodGet:
		if id := strings.TrimSpace(r.URL.Query().Get("id")); id != "" {
			c, err := h.customers.Get(r.Context(), tenantID, id)
			if err != nil {
				if storage.IsNotFound(err) {
					http.Error(w, "customer not found", http.StatusNotFound)
					return
				}
				h.logger.Error("customer lookup failed", "err", err, "tenant_id", tenantID)
				http.Error(w, "failed to load customer", http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(customerToItem(c))
			return
		}

		list, err := h.customers.List(r.Context(), tenantID, 0)
		if err != nil {
			h.logger.Error("customer list failed", "err", err, "tenant_id", tenantID)
			http.Error(w, "failed to list customers", http.StatusInternalServerError)
			return
		}
		items := make([]customerItem, 0, len(list))
		for _, c := range list {
			items = append(items, customerToItem(c))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"customers": items})

	case http.MethodPost:
		var req struct {
			Name  string `json:"name"`
			Phone string `json:"phone"`
			Email string `json:"email"`
			Notes string `json:"notes"`
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

		c, err := h.customers.Create(r.Context(), tenantID, model.Customer{
			Name:  req.Name,
			Phone: strings.TrimSpace(req.Phone),
			Email: strings.TrimSpace(req.Email),
			Notes: req.Notes,
		})
		if err != nil {
			if storage.IsDuplicate(err) {
				http.Error(w, "customer with this phone already exists", http.StatusConflict)
				return
			}
			h.logger.Error("customer create failed", "err", err, "tenant_id", tenantID)
			http.Error(w, "failed to create customer", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(customerToItem(c))

	case http.MethodPut:
		var req struct {
			CustomerID string `json:"customer_id"`
			Name       string `json:"name"`
			Phone      string `json:"phone"`
			Email      string `json:"email"`
			Notes      string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.CustomerID = strings.TrimSpace(req.CustomerID)
		req.Name = strings.TrimSpace(req.Name)
		if req.CustomerID == "" || req.Name == "" {
			http.Error(w, "customer_id and name are required", http.StatusBadRequest)
			return
		}

		err := h.customers.Update(r.Context(), tenantID, model.Customer{
			ID:    req.CustomerID,
			Name:  req.Name,
			Phone: strings.TrimSpace(req.Phone),
			Email: strings.TrimSpace(req.Email),
			Notes: req.Notes,
		})
		if err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "customer not found", http.StatusNotFound)
				return
			}
			h.logger.Error("customer update failed", "err", err, "tenant_id", tenantID)
			http.Error(w, "failed to update customer", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
