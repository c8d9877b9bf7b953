package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/model"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/tenant"
)

type AppointmentRepository struct {
	pool *db.Pool
}

func NewAppointmentRepository(pool *db.Pool) *AppointmentRepository {
	return &AppointmentRepository{pool: pool}
}

// Create inserts an appointment after checking, inside one transaction, that
// the referenced customer and service belong to the same tenant. A reference
// into another tenant reads as not-found.
func (r *AppointmentRepository) Create(ctx context.Context, tenantID string, a model.Appointment) (model.Appointment, error) {
	if tenantID == "" {
		return model.Appointment{}, tenant.ErrMissing("appointments.Create")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Appointment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var owned bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1 AND tenant_id = $3)
		   AND EXISTS (SELECT 1 FROM services  WHERE id = $2 AND tenant_id = $3)
	`, a.CustomerID, a.ServiceID, tenantID).Scan(&owned)
	if err != nil {
		return model.Appointment{}, err
	}
	if !owned {
		return model.Appointment{}, pgx.ErrNoRows
	}

	a.ID = uuid.NewString()
	a.TenantID = tenantID
	a.Status = model.StatusScheduled
	a.StartAt = a.StartAt.UTC()
	err = tx.QueryRow(ctx, `
		INSERT INTO appointments (id, tenant_id, customer_id, service_id, start_at, notes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, a.ID, tenantID, a.CustomerID, a.ServiceID, a.StartAt, a.Notes, a.Status).Scan(&a.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

func (r *AppointmentRepository) List(ctx context.Context, tenantID string, limit int) ([]model.Appointment, error) {
	if tenantID == "" {
		return nil, tenant.ErrMissing("appointments.List")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, tenant_id::text, customer_id::text, service_id::text, start_at, COALESCE(notes, ''), status, created_at
		FROM appointments
		WHERE tenant_id = $1
		ORDER BY start_at
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.CustomerID, &a.ServiceID, &a.StartAt, &a.Notes, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// UpdateStatus touches only the status column. The reminder worker writes its
// markers to a separate relation, so a concurrent status change and a marker
// commit never overwrite each other.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, tenantID, appointmentID, status string) (model.Appointment, error) {
	if tenantID == "" {
		return model.Appointment{}, tenant.ErrMissing("appointments.UpdateStatus")
	}
	var a model.Appointment
	err := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3
		WHERE id = $1 AND tenant_id = $2
		RETURNING id::text, tenant_id::text, customer_id::text, service_id::text, start_at, COALESCE(notes, ''), status, created_at
	`, appointmentID, tenantID, status).Scan(&a.ID, &a.TenantID, &a.CustomerID, &a.ServiceID, &a.StartAt, &a.Notes, &a.Status, &a.CreatedAt)
	if err != nil {
		return model.Appointment{}, err
	}
	return a, nil
}

// UpcomingCount supports the dashboard: scheduled/confirmed appointments in
// the next n hours for one tenant.
func (r *AppointmentRepository) UpcomingCount(ctx context.Context, tenantID string, within time.Duration) (int, error) {
	if tenantID == "" {
		return 0, tenant.ErrMissing("appointments.UpcomingCount")
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE tenant_id = $1
		  AND status IN ($2, $3)
		  AND start_at > now()
		  AND start_at <= now() + $4
	`, tenantID, model.StatusScheduled, model.StatusConfirmed, within).Scan(&n)
	return n, err
}
