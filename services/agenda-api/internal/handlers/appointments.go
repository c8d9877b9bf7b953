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

type appointmentItem struct {
	AppointmentID string `json:"appointment_id"`
	CustomerID    string `json:"customer_id"`
	ServiceID     string `json:"service_id"`
	StartAt       string `json:"start_at"`
	Notes         string `json:"notes,omitempty"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

func appointmentToItem(a model.Appointment) appointmentItem {
	return appointmentItem{
		AppointmentID: a.ID,
		CustomerID:    a.CustomerID,
		ServiceID:     a.ServiceID,
		StartAt:       a.StartAt.UTC().Format(time.RFC3339),
		Notes:         a.Notes,
		Status:        a.Status,
		CreatedAt:     a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *Handler) Appointments(w http.ResponseWriter, r *http.Request) {
	tenantID := tenant.ID(r.Context())

	switch r.Method {
	case http.MethodGet:
		list, err := h.appointments.List(r.Context(), tenantID, 0)
		if err != nil {
			h.logger.Error("appointment list failed", "err", err, "tenant_id", tenantID)
			http.Error(w, "failed to list appointments", http.StatusInternalServerError)
			return
		}
		items := make([]appointmentItem, 0, len(list))
		for _, a := range list {
			items = append(items, appointmentToItem(a))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"appointments": items})

	case http.MethodPost:
		var req struct {
			CustomerID string `json:"customer_id"`
			ServiceID  string `json:"service_id"`
			StartAt    string `json:"start_at"`
			Notes      string `json:"notes"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.CustomerID = strings.TrimSpace(req.CustomerID)
		req.ServiceID = strings.TrimSpace(req.ServiceID)
		if req.CustomerID == "" || req.ServiceID == "" || req.StartAt == "" {
			http.Error(w, "customer_id, service_id and start_at are required", http.StatusBadRequest)
			return
		}
		startAt, err := time.Parse(time.RFC3339, req.StartAt)
		if err != nil {
			http.Error(w, "start_at must be RFC3339", http.StatusBadRequest)
			return
		}
		if !startAt.After(time.Now()) {
			http.Error(w, "start_at must be in the future", http.StatusBadRequest)
			return
		}

		a, err := h.appointments.Create(r.Context(), tenantID, model.Appointment{
			CustomerID: req.CustomerID,
			ServiceID:  req.ServiceID,
			StartAt:    startAt,
			Notes:      req.Notes,
		})
		if err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "customer or service not found", http.StatusNotFound)
				return
			}
			h.logger.Error("appointment create failed", "err", err, "tenant_id", tenantID)
			http.Error(w, "failed to create appointment", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(appointmentToItem(a))

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// AppointmentStatus sets the status column only; marker state is untouched.
func (h *Handler) AppointmentStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenant.ID(r.Context())

	var req struct {
		AppointmentID string `json:"appointment_id"`
		Status        string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id is required", http.StatusBadRequest)
		return
	}
	if !model.ValidStatus(req.Status) {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	a, err := h.appointments.UpdateStatus(r.Context(), tenantID, req.AppointmentID, req.Status)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("appointment status update failed", "err", err, "tenant_id", tenantID)
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(appointmentToItem(a))
}

// DashboardSummary returns the tenant's upcoming appointment count.
func (h *Handler) DashboardSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tenantID := tenant.ID(r.Context())
	next24h, err := h.appointments.UpcomingCount(r.Context(), tenantID, 24*time.Hour)
	if err != nil {
		h.logger.Error("dashboard summary failed", "err", err, "tenant_id", tenantID)
		http.Error(w, "failed to load summary", http.StatusInternalServerError)
		return
	}
	next7d, err := h.appointments.UpcomingCount(r.Context(), tenantID, 7*24*time.Hour)
	if err != nil {
		h.logger.Error("dashboard summary failed", "err", err, "tenant_id", tenantID)
		http.Error(w, "failed to load summary", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"upcoming_24h": next24h,
		"upcoming_7d":  next7d,
	})
}
