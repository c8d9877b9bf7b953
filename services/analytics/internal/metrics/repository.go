package metrics

import (
	"context"

	"github.com/agendafacil/agendafacil/libs/db"
)

// Repository persists per-dispatch reminder metrics and keeps the daily
// per-tenant aggregate in step with them.
type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) RecordSent(ctx context.Context, evt SentEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO reminder_metrics (appointment_id, tenant_id, lead_time_minutes, provider_id, status, occurred_at)
		VALUES ($1, $2, $3, $4, 'sent', $5)
	`, evt.AppointmentID, evt.TenantID, evt.LeadTimeMinutes, evt.ProviderID, evt.SentAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_reminder_metrics (tenant_id, day, lead_time_minutes, sent_count, failed_count)
		VALUES ($1, $2::date, $3, 1, 0)
		ON CONFLICT (tenant_id, day, lead_time_minutes)
		DO UPDATE SET sent_count = daily_reminder_metrics.sent_count + 1,
		              updated_at = now()
	`, evt.TenantID, evt.SentAt, evt.LeadTimeMinutes); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) RecordFailed(ctx context.Context, evt FailedEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO reminder_metrics (appointment_id, tenant_id, lead_time_minutes, status, error_reason, occurred_at)
		VALUES ($1, $2, $3, 'failed', $4, $5)
	`, evt.AppointmentID, evt.TenantID, evt.LeadTimeMinutes, evt.ErrorReason, evt.FailedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO daily_reminder_metrics (tenant_id, day, lead_time_minutes, sent_count, failed_count)
		VALUES ($1, $2::date, $3, 0, 1)
		ON CONFLICT (tenant_id, day, lead_time_minutes)
		DO UPDATE SET failed_count = daily_reminder_metrics.failed_count + 1,
		              updated_at = now()
	`, evt.TenantID, evt.FailedAt, evt.LeadTimeMinutes); err != nil {
		return err
	}

	return tx.Commit(ctx)
}
