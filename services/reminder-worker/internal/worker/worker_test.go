package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/policy"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/storage"
)

type fakeStore struct {
	candidates []policy.Candidate
	markers    map[string]time.Time
	commitErr  error
	failures   []string
}

func newFakeStore(candidates ...policy.Candidate) *fakeStore {
	return &fakeStore{
		candidates: candidates,
		markers:    map[string]time.Time{},
	}
}

func markerKey(appointmentID string, lead time.Duration) string {
	return fmt.Sprintf("%s|%d", appointmentID, int(lead.Minutes()))
}

func (s *fakeStore) FetchDueCandidates(_ context.Context, now, windowEnd time.Time) ([]policy.Candidate, error) {
	var out []policy.Candidate
	for _, c := range s.candidates {
		if c.Status != "scheduled" || !c.StartAt.After(now) || c.StartAt.After(windowEnd) {
			continue
		}
		c.Sent = map[time.Duration]time.Time{}
		for _, lead := range []time.Duration{24 * time.Hour, time.Hour} {
			if at, ok := s.markers[markerKey(c.AppointmentID, lead)]; ok {
				c.Sent[lead] = at
			}
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) MarkRemindersSent(_ context.Context, dispatches []storage.Dispatch) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	for _, d := range dispatches {
		s.markers[markerKey(d.AppointmentID, d.Lead)] = d.SentAt
	}
	return nil
}

func (s *fakeStore) RecordFailure(_ context.Context, d storage.Dispatch, reason string) error {
	s.failures = append(s.failures, markerKey(d.AppointmentID, d.Lead)+"|"+reason)
	return nil
}

func (s *fakeStore) setStatus(appointmentID, status string) {
	for i := range s.candidates {
		if s.candidates[i].AppointmentID == appointmentID {
			s.candidates[i].Status = status
		}
	}
}

type fakeSender struct {
	sent      []string
	failPhone string
}

func (f *fakeSender) ProviderID() string { return "fake" }

func (f *fakeSender) Send(_ context.Context, phone string, _ string) error {
	if phone == f.failPhone {
		return errors.New("gateway unavailable")
	}
	f.sent = append(f.sent, phone)
	return nil
}

func testCandidate(id, phone string, startAt time.Time) policy.Candidate {
	return policy.Candidate{
		TenantID:      "tenant-1",
		AppointmentID: id,
		StartAt:       startAt,
		Status:        "scheduled",
		CustomerName:  "Maria",
		CustomerPhone: phone,
		ServiceName:   "Corte de cabelo",
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestCycleIdempotent(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(testCandidate("appt-1", "+551100", base.Add(23*time.Hour)))
	sender := &fakeSender{}

	w := New(store, sender, testLogger(), Config{
		Now: func() time.Time { return base },
	})

	w.RunCycle(context.Background())
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send after first cycle, got %d", len(sender.sent))
	}
	if _, ok := store.markers[markerKey("appt-1", 24*time.Hour)]; !ok {
		t.Fatal("expected 24h marker after first cycle")
	}

	// Same clock, immediate re-run: nothing is due again.
	w.RunCycle(context.Background())
	if len(sender.sent) != 1 {
		t.Fatalf("expected no second send, got %d total", len(sender.sent))
	}
}

func TestCycleLeadTimesProgress(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	appt := base.Add(23 * time.Hour)
	store := newFakeStore(testCandidate("appt-1", "+551100", appt))
	sender := &fakeSender{}

	now := base
	w := New(store, sender, testLogger(), Config{
		Now: func() time.Time { return now },
	})

	// Cycle 1: 23h out. Only the 24h reminder fires.
	w.RunCycle(context.Background())
	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 send in cycle 1, got %d", len(sender.sent))
	}
	if _, ok := store.markers[markerKey("appt-1", time.Hour)]; ok {
		t.Fatal("1h marker must not exist yet")
	}

	// Clock advances until the appointment is 55 minutes away.
	now = appt.Add(-55 * time.Minute)
	w.RunCycle(context.Background())
	if len(sender.sent) != 2 {
		t.Fatalf("expected the 1h reminder in cycle 2, got %d sends", len(sender.sent))
	}
	if _, ok := store.markers[markerKey("appt-1", time.Hour)]; !ok {
		t.Fatal("expected 1h marker after cycle 2")
	}

	// Third run at the same clock: both lead times already sent.
	w.RunCycle(context.Background())
	if len(sender.sent) != 2 {
		t.Fatalf("expected no further sends, got %d", len(sender.sent))
	}
}

func TestCyclePartialFailureIsolated(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(
		testCandidate("appt-1", "+551101", base.Add(30*time.Minute)),
		testCandidate("appt-2", "+551102", base.Add(40*time.Minute)),
		testCandidate("appt-3", "+551103", base.Add(50*time.Minute)),
	)
	sender := &fakeSender{failPhone: "+551102"}

	w := New(store, sender, testLogger(), Config{
		LeadTimes: []time.Duration{time.Hour},
		Now:       func() time.Time { return base },
	})

	w.RunCycle(context.Background())
	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 successful sends, got %d", len(sender.sent))
	}
	if _, ok := store.markers[markerKey("appt-1", time.Hour)]; !ok {
		t.Fatal("appt-1 should be marked")
	}
	if _, ok := store.markers[markerKey("appt-3", time.Hour)]; !ok {
		t.Fatal("appt-3 should be marked")
	}
	if _, ok := store.markers[markerKey("appt-2", time.Hour)]; ok {
		t.Fatal("failed appt-2 must stay unmarked")
	}
	if len(store.failures) != 1 {
		t.Fatalf("expected 1 failure event, got %d", len(store.failures))
	}

	// Gateway recovers: next cycle retries only the failed appointment.
	sender.failPhone = ""
	w.RunCycle(context.Background())
	if len(sender.sent) != 3 {
		t.Fatalf("expected the retry send, got %d total", len(sender.sent))
	}
	if _, ok := store.markers[markerKey("appt-2", time.Hour)]; !ok {
		t.Fatal("appt-2 should be marked after retry")
	}
}

func TestCycleSkipsCancelledAppointment(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(testCandidate("appt-1", "+551100", base.Add(30*time.Minute)))
	sender := &fakeSender{}

	w := New(store, sender, testLogger(), Config{
		Now: func() time.Time { return base },
	})

	// Cancelled between two cycles: the fetch no longer returns it and
	// nothing is sent.
	store.setStatus("appt-1", "cancelled")
	w.RunCycle(context.Background())
	if len(sender.sent) != 0 {
		t.Fatalf("expected no sends for a cancelled appointment, got %d", len(sender.sent))
	}
}

func TestCycleCommitFailureRetriesNextCycle(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore(testCandidate("appt-1", "+551100", base.Add(30*time.Minute)))
	sender := &fakeSender{}

	w := New(store, sender, testLogger(), Config{
		LeadTimes: []time.Duration{time.Hour},
		Now:       func() time.Time { return base },
	})

	store.commitErr = errors.New("connection reset")
	w.RunCycle(context.Background())
	if len(store.markers) != 0 {
		t.Fatal("no markers may land when the commit fails")
	}

	// Next cycle re-sends (at-least-once) and the commit lands.
	store.commitErr = nil
	w.RunCycle(context.Background())
	if len(sender.sent) != 2 {
		t.Fatalf("expected a duplicate send after the failed commit, got %d", len(sender.sent))
	}
	if _, ok := store.markers[markerKey("appt-1", time.Hour)]; !ok {
		t.Fatal("expected marker after successful commit")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	store := newFakeStore()
	w := New(store, &fakeSender{}, testLogger(), Config{Interval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return promptly after cancellation")
	}
}
