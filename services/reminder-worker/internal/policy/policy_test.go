package policy

import (
	"testing"
	"time"
)

var (
	lead24h = 24 * time.Hour
	lead1h  = 1 * time.Hour
)

func eligibleCandidate(startAt time.Time) Candidate {
	return Candidate{
		TenantID:      "tenant-1",
		AppointmentID: "appt-1",
		StartAt:       startAt,
		Status:        "scheduled",
		CustomerName:  "Maria",
		CustomerPhone: "+5511999990000",
		ServiceName:   "Corte de cabelo",
	}
}

func TestEvaluate_FarFutureNotDue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := eligibleCandidate(now.Add(25 * time.Hour))

	if got := Evaluate(now, c, lead24h); got != NotDue {
		t.Fatalf("expected NotDue for 24h lead, got %s", got)
	}
	if got := Evaluate(now, c, lead1h); got != NotDue {
		t.Fatalf("expected NotDue for 1h lead, got %s", got)
	}
}

func TestEvaluate_Due24h(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := eligibleCandidate(now.Add(23 * time.Hour))

	if got := Evaluate(now, c, lead24h); got != Due {
		t.Fatalf("expected Due for 24h lead, got %s", got)
	}
	if got := Evaluate(now, c, lead1h); got != NotDue {
		t.Fatalf("expected NotDue for 1h lead, got %s", got)
	}
}

func TestEvaluate_WindowBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// start == now+24h is inside the window (inclusive upper bound).
	atBound := eligibleCandidate(now.Add(24 * time.Hour))
	if got := Evaluate(now, atBound, lead24h); got != Due {
		t.Fatalf("expected Due at the window's upper bound, got %s", got)
	}

	// start == now is outside (strictly future appointments only).
	atNow := eligibleCandidate(now)
	if got := Evaluate(now, atNow, lead24h); got != NotDue {
		t.Fatalf("expected NotDue when the appointment starts now, got %s", got)
	}

	past := eligibleCandidate(now.Add(-time.Minute))
	if got := Evaluate(now, past, lead24h); got != NotDue {
		t.Fatalf("expected NotDue for a past appointment, got %s", got)
	}
}

func TestEvaluate_1hIndependentOf24hMarker(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := eligibleCandidate(now.Add(55 * time.Minute))

	// No markers at all: the 1h reminder is due even though the 24h one
	// never fired.
	if got := Evaluate(now, c, lead1h); got != Due {
		t.Fatalf("expected Due for 1h lead with no markers, got %s", got)
	}

	// 24h marker present: still due for 1h.
	c.Sent = map[time.Duration]time.Time{lead24h: now.Add(-22 * time.Hour)}
	if got := Evaluate(now, c, lead1h); got != Due {
		t.Fatalf("expected Due for 1h lead with only a 24h marker, got %s", got)
	}

	// 1h marker present: AlreadySent for 1h, AlreadySent for 24h too since
	// the appointment sits inside both windows and both markers exist.
	c.Sent[lead1h] = now.Add(-time.Minute)
	if got := Evaluate(now, c, lead1h); got != AlreadySent {
		t.Fatalf("expected AlreadySent for 1h lead, got %s", got)
	}
	if got := Evaluate(now, c, lead24h); got != AlreadySent {
		t.Fatalf("expected AlreadySent for 24h lead, got %s", got)
	}
}

func TestEvaluate_IneligibleWithoutPhone(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c := eligibleCandidate(now.Add(30 * time.Minute))
	c.CustomerPhone = ""

	if got := Evaluate(now, c, lead1h); got != Ineligible {
		t.Fatalf("expected Ineligible without a phone, got %s", got)
	}
	if got := Evaluate(now, c, lead24h); got != Ineligible {
		t.Fatalf("expected Ineligible without a phone, got %s", got)
	}
}

func TestEvaluate_IneligibleStatuses(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, status := range []string{"confirmed", "completed", "cancelled", "no_show"} {
		c := eligibleCandidate(now.Add(30 * time.Minute))
		c.Status = status
		if got := Evaluate(now, c, lead1h); got != Ineligible {
			t.Fatalf("expected Ineligible for status %q, got %s", status, got)
		}
	}
}

func TestEvaluate_IneligibleUnresolvedJoins(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	noCustomer := eligibleCandidate(now.Add(30 * time.Minute))
	noCustomer.CustomerName = ""
	if got := Evaluate(now, noCustomer, lead1h); got != Ineligible {
		t.Fatalf("expected Ineligible without a customer, got %s", got)
	}

	noService := eligibleCandidate(now.Add(30 * time.Minute))
	noService.ServiceName = ""
	if got := Evaluate(now, noService, lead1h); got != Ineligible {
		t.Fatalf("expected Ineligible without a service, got %s", got)
	}
}

func TestDueLeadTimes(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	leads := []time.Duration{lead24h, lead1h}

	// 55 minutes out with no markers: both windows apply.
	c := eligibleCandidate(now.Add(55 * time.Minute))
	due := DueLeadTimes(now, c, leads)
	if len(due) != 2 {
		t.Fatalf("expected both lead times due, got %v", due)
	}

	// 23 hours out: only the 24h window.
	c = eligibleCandidate(now.Add(23 * time.Hour))
	due = DueLeadTimes(now, c, leads)
	if len(due) != 1 || due[0] != lead24h {
		t.Fatalf("expected only the 24h lead, got %v", due)
	}
}
