package metrics

import (
	"errors"
	"testing"
	"time"
)

func TestParseSent(t *testing.T) {
	payload := []byte(`{
		"appointment_id": "a1",
		"tenant_id": "t1",
		"lead_time_minutes": 1440,
		"provider_id": "whatsapp-webhook",
		"sent_at": "2026-03-10T12:00:00Z"
	}`)
	evt, err := ParseSent(payload)
	if err != nil {
		t.Fatalf("ParseSent: %v", err)
	}
	if evt.AppointmentID != "a1" || evt.TenantID != "t1" || evt.LeadTimeMinutes != 1440 {
		t.Fatalf("unexpected event: %+v", evt)
	}
	if !evt.SentAt.Equal(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected sent_at: %v", evt.SentAt)
	}
}

func TestParseSentRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":       `{{`,
		"no appointment": `{"tenant_id":"t1","lead_time_minutes":60,"sent_at":"2026-03-10T12:00:00Z"}`,
		"no tenant":      `{"appointment_id":"a1","lead_time_minutes":60,"sent_at":"2026-03-10T12:00:00Z"}`,
		"zero lead":      `{"appointment_id":"a1","tenant_id":"t1","lead_time_minutes":0,"sent_at":"2026-03-10T12:00:00Z"}`,
		"bad timestamp":  `{"appointment_id":"a1","tenant_id":"t1","lead_time_minutes":60,"sent_at":"tomorrow"}`,
	}
	for name, payload := range cases {
		if _, err := ParseSent([]byte(payload)); !errors.Is(err, ErrInvalidEvent) {
			t.Errorf("%s: expected ErrInvalidEvent, got %v", name, err)
		}
	}
}

func TestParseFailed(t *testing.T) {
	payload := []byte(`{
		"appointment_id": "a1",
		"tenant_id": "t1",
		"lead_time_minutes": 60,
		"error_reason": "gateway unavailable",
		"failed_at": "2026-03-10T12:05:00Z"
	}`)
	evt, err := ParseFailed(payload)
	if err != nil {
		t.Fatalf("ParseFailed: %v", err)
	}
	if evt.ErrorReason != "gateway unavailable" || evt.LeadTimeMinutes != 60 {
		t.Fatalf("unexpected event: %+v", evt)
	}
}

func TestParseFailedRequiresReason(t *testing.T) {
	payload := []byte(`{"appointment_id":"a1","tenant_id":"t1","lead_time_minutes":60,"failed_at":"2026-03-10T12:05:00Z"}`)
	if _, err := ParseFailed(payload); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}
