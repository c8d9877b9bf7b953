package metrics

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidEvent = errors.New("metrics: invalid event payload")

// SentEvent mirrors the payload of reminder.sent.v1.
type SentEvent struct {
	AppointmentID   string
	TenantID        string
	LeadTimeMinutes int
	ProviderID      string
	SentAt          time.Time
}

// FailedEvent mirrors the payload of reminder.failed.v1.
type FailedEvent struct {
	AppointmentID   string
	TenantID        string
	LeadTimeMinutes int
	ErrorReason     string
	FailedAt        time.Time
}

func ParseSent(payload []byte) (SentEvent, error) {
	var raw struct {
		AppointmentID   string `json:"appointment_id"`
		TenantID        string `json:"tenant_id"`
		LeadTimeMinutes int    `json:"lead_time_minutes"`
		ProviderID      string `json:"provider_id"`
		SentAt          string `json:"sent_at"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return SentEvent{}, ErrInvalidEvent
	}
	if raw.AppointmentID == "" || raw.TenantID == "" || raw.LeadTimeMinutes <= 0 {
		return SentEvent{}, ErrInvalidEvent
	}
	sentAt, err := time.Parse(time.RFC3339, raw.SentAt)
	if err != nil {
		return SentEvent{}, ErrInvalidEvent
	}
	return SentEvent{
		AppointmentID:   raw.AppointmentID,
		TenantID:        raw.TenantID,
		LeadTimeMinutes: raw.LeadTimeMinutes,
		ProviderID:      raw.ProviderID,
		SentAt:          sentAt.UTC(),
	}, nil
}

func ParseFailed(payload []byte) (FailedEvent, error) {
	var raw struct {
		AppointmentID   string `json:"appointment_id"`
		TenantID        string `json:"tenant_id"`
		LeadTimeMinutes int    `json:"lead_time_minutes"`
		ErrorReason     string `json:"error_reason"`
		FailedAt        string `json:"failed_at"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return FailedEvent{}, ErrInvalidEvent
	}
	if raw.AppointmentID == "" || raw.TenantID == "" || raw.LeadTimeMinutes <= 0 || raw.ErrorReason == "" {
		return FailedEvent{}, ErrInvalidEvent
	}
	failedAt, err := time.Parse(time.RFC3339, raw.FailedAt)
	if err != nil {
		return FailedEvent{}, ErrInvalidEvent
	}
	return FailedEvent{
		AppointmentID:   raw.AppointmentID,
		TenantID:        raw.TenantID,
		LeadTimeMinutes: raw.LeadTimeMinutes,
		ErrorReason:     raw.ErrorReason,
		FailedAt:        failedAt.UTC(),
	}, nil
}
