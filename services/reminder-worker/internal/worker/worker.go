package worker

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/notify"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/policy"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/storage"
)

// Store is the worker's view of persistence. FetchDueCandidates sweeps every
// tenant; MarkRemindersSent commits a whole cycle's markers atomically.
type Store interface {
	FetchDueCandidates(ctx context.Context, now, windowEnd time.Time) ([]policy.Candidate, error)
	MarkRemindersSent(ctx context.Context, dispatches []storage.Dispatch) error
	RecordFailure(ctx context.Context, d storage.Dispatch, reason string) error
}

type Worker struct {
	store    Store
	sender   notify.Sender
	logger   *slog.Logger
	interval time.Duration
	leads    []time.Duration
	now      func() time.Time
}

type Config struct {
	// Interval is the sleep between cycles; the full interval elapses after
	// each cycle ends, however long the cycle took.
	Interval time.Duration
	// LeadTimes are the reminder offsets, largest bounding the sweep window.
	LeadTimes []time.Duration
	// Now is injectable for tests.
	Now func() time.Time
}

func New(store Store, sender notify.Sender, logger *slog.Logger, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if len(cfg.LeadTimes) == 0 {
		cfg.LeadTimes = []time.Duration{24 * time.Hour, time.Hour}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Worker{
		store:    store,
		sender:   sender,
		logger:   logger,
		interval: cfg.Interval,
		leads:    cfg.LeadTimes,
		now:      cfg.Now,
	}
}

// Run executes cycles until ctx is cancelled. Cancellation interrupts the
// sleep promptly; a cycle already in flight runs to completion on a detached
// context so its commit is never cut off mid-way.
func (w *Worker) Run(ctx context.Context) {
	timer := time.NewTimer(w.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			w.RunCycle(context.WithoutCancel(ctx))
			timer.Reset(w.interval)
		}
	}
}

// RunCycle performs one sweep: fetch candidates, evaluate policy per lead
// time, notify, and commit all markers in a single batch. Errors are
// contained per appointment and per cycle; the loop never dies over them.
func (w *Worker) RunCycle(ctx context.Context) {
	now := w.now().UTC()
	windowEnd := now.Add(w.maxLead())

	ctx, span := otel.Tracer("reminder-worker").Start(ctx, "reminder.cycle")
	defer span.End()

	candidates, err := w.store.FetchDueCandidates(ctx, now, windowEnd)
	if err != nil {
		w.logger.Error("candidate query failed", "err", err)
		span.RecordError(err)
		return
	}

	var dispatches []storage.Dispatch
	var sent, failed, skipped int
	for _, c := range candidates {
		for _, lead := range w.leads {
			switch policy.Evaluate(now, c, lead) {
			case policy.Due:
			default:
				continue
			}

			// Defensive re-check before any delivery side effect. The query
			// and the evaluator should agree; an ineligible appointment
			// reaching this point is a policy violation worth logging.
			if !c.Eligible() {
				w.logger.Warn("ineligible appointment reached dispatch",
					"tenant_id", c.TenantID, "appointment_id", c.AppointmentID, "status", c.Status)
				skipped++
				continue
			}

			d := storage.Dispatch{
				TenantID:      c.TenantID,
				AppointmentID: c.AppointmentID,
				Lead:          lead,
				SentAt:        now,
				Phone:         c.CustomerPhone,
				Provider:      w.sender.ProviderID(),
			}

			msg := RenderMessage(c, lead)
			if err := w.sender.Send(ctx, c.CustomerPhone, msg); err != nil {
				// Transient by assumption: no marker, retried next cycle.
				w.logger.Error("reminder send failed",
					"err", err, "tenant_id", c.TenantID, "appointment_id", c.AppointmentID, "lead", lead.String())
				if recErr := w.store.RecordFailure(ctx, d, err.Error()); recErr != nil {
					w.logger.Error("failure event not recorded", "err", recErr, "appointment_id", c.AppointmentID)
				}
				failed++
				continue
			}

			dispatches = append(dispatches, d)
			sent++
		}
	}

	if err := w.store.MarkRemindersSent(ctx, dispatches); err != nil {
		// The whole batch is retried next cycle; duplicates are acceptable
		// (at-least-once delivery).
		w.logger.Error("marker commit failed", "err", err, "dispatches", len(dispatches))
		span.RecordError(err)
		return
	}

	span.SetAttributes(
		attribute.Int("reminders.candidates", len(candidates)),
		attribute.Int("reminders.sent", sent),
		attribute.Int("reminders.failed", failed),
	)
	w.logger.Info("reminder cycle finished",
		"candidates", len(candidates), "sent", sent, "failed", failed, "skipped", skipped)
}

func (w *Worker) maxLead() time.Duration {
	max := w.leads[0]
	for _, l := range w.leads[1:] {
		if l > max {
			max = l
		}
	}
	return max
}
