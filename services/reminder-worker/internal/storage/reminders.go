package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/outbox"
	"github.com/agendafacil/agendafacil/services/reminder-worker/internal/policy"
)

// Dispatch records one sent reminder: which appointment, which lead time,
// when, and through which provider.
type Dispatch struct {
	TenantID      string
	AppointmentID string
	Lead          time.Duration
	SentAt        time.Time
	Phone         string
	Provider      string
}

// ReminderStore is the worker's system-wide view of the appointment book.
// Its queries deliberately carry no tenant filter: the worker is a
// privileged background job sweeping every tenant at once.
type ReminderStore struct {
	pool   *db.Pool
	outbox *outbox.Repository
}

func NewReminderStore(pool *db.Pool, outboxRepo *outbox.Repository) *ReminderStore {
	return &ReminderStore{pool: pool, outbox: outboxRepo}
}

// FetchDueCandidates returns every scheduled appointment starting in
// (now, windowEnd], joined with its customer and service and with the lead
// times already dispatched. The policy evaluator re-checks eligibility, so
// the query filters only on status and window.
func (s *ReminderStore) FetchDueCandidates(ctx context.Context, now, windowEnd time.Time) ([]policy.Candidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT a.id::text, a.tenant_id::text, a.start_at, a.status, COALESCE(a.notes, ''),
			COALESCE(c.name, ''), COALESCE(c.phone, ''), COALESCE(sv.name, ''),
			COALESCE(array_agg(rd.lead_time_minutes) FILTER (WHERE rd.lead_time_minutes IS NOT NULL), '{}')
		FROM appointments a
		LEFT JOIN customers c ON c.id = a.customer_id AND c.tenant_id = a.tenant_id
		LEFT JOIN services sv ON sv.id = a.service_id AND sv.tenant_id = a.tenant_id
		LEFT JOIN reminder_dispatches rd ON rd.appointment_id = a.id
		WHERE a.status = 'scheduled'
		  AND a.start_at > $1
		  AND a.start_at <= $2
		GROUP BY a.id, a.tenant_id, a.start_at, a.status, a.notes, c.name, c.phone, sv.name
		ORDER BY a.start_at
	`, now, windowEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []policy.Candidate
	for rows.Next() {
		var c policy.Candidate
		var sentMins []int32
		if err := rows.Scan(&c.AppointmentID, &c.TenantID, &c.StartAt, &c.Status, &c.Notes,
			&c.CustomerName, &c.CustomerPhone, &c.ServiceName, &sentMins); err != nil {
			return nil, err
		}
		c.StartAt = c.StartAt.UTC()
		if len(sentMins) > 0 {
			c.Sent = make(map[time.Duration]time.Time, len(sentMins))
			for _, m := range sentMins {
				// sent_at is not needed by the policy; presence is enough.
				c.Sent[time.Duration(m)*time.Minute] = time.Time{}
			}
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// MarkRemindersSent commits the cycle's markers in one transaction, together
// with one reminder.sent outbox event per dispatch. The unique constraint on
// (appointment_id, lead_time_minutes) makes a retried commit idempotent.
func (s *ReminderStore) MarkRemindersSent(ctx context.Context, dispatches []Dispatch) error {
	if len(dispatches) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin marker commit: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, d := range dispatches {
		_, err := tx.Exec(ctx, `
			INSERT INTO reminder_dispatches (tenant_id, appointment_id, lead_time_minutes, sent_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (appointment_id, lead_time_minutes) DO NOTHING
		`, d.TenantID, d.AppointmentID, int(d.Lead.Minutes()), d.SentAt.UTC())
		if err != nil {
			return fmt.Errorf("insert marker: %w", err)
		}

		payload, err := json.Marshal(map[string]any{
			"appointment_id":    d.AppointmentID,
			"tenant_id":         d.TenantID,
			"lead_time_minutes": int(d.Lead.Minutes()),
			"provider_id":       d.Provider,
			"sent_at":           d.SentAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return err
		}
		if err := s.outbox.Insert(ctx, tx, outbox.Event{
			AggregateType: "reminder",
			AggregateID:   d.AppointmentID,
			EventType:     outbox.EventReminderSent,
			Payload:       payload,
		}); err != nil {
			return fmt.Errorf("insert outbox event: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// RecordFailure emits a reminder.failed event in its own transaction. Best
// effort; the failed dispatch stays unmarked and is retried next cycle.
func (s *ReminderStore) RecordFailure(ctx context.Context, d Dispatch, reason string) error {
	payload, err := json.Marshal(map[string]any{
		"appointment_id":    d.AppointmentID,
		"tenant_id":         d.TenantID,
		"lead_time_minutes": int(d.Lead.Minutes()),
		"error_reason":      reason,
		"failed_at":         time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := s.outbox.Insert(ctx, tx, outbox.Event{
		AggregateType: "reminder",
		AggregateID:   d.AppointmentID,
		EventType:     outbox.EventReminderFailed,
		Payload:       payload,
	}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
