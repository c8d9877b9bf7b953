package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/model"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/tenant"
)

type ServiceRepository struct {
	pool *db.Pool
}

func NewServiceRepository(pool *db.Pool) *ServiceRepository {
	return &ServiceRepository{pool: pool}
}

func (r *ServiceRepository) Create(ctx context.Context, tenantID string, s model.Service) (model.Service, error) {
	if tenantID == "" {
		return model.Service{}, tenant.ErrMissing("services.Create")
	}
	s.ID = uuid.NewString()
	s.TenantID = tenantID
	s.IsActive = true
	if s.DurationMins <= 0 {
		s.DurationMins = 60
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO services (id, tenant_id, name, description, price, duration_minutes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING created_at
	`, s.ID, tenantID, s.Name, s.Description, s.Price, s.DurationMins).Scan(&s.CreatedAt)
	if err != nil {
		return model.Service{}, err
	}
	return s, nil
}

func (r *ServiceRepository) Get(ctx context.Context, tenantID, serviceID string) (model.Service, error) {
	if tenantID == "" {
		return model.Service{}, tenant.ErrMissing("services.Get")
	}
	var s model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, COALESCE(description, ''), price::text, duration_minutes, is_active, created_at
		FROM services
		WHERE id = $1 AND tenant_id = $2
	`, serviceID, tenantID).Scan(&s.ID, &s.TenantID, &s.Name, &s.Description, &s.Price, &s.DurationMins, &s.IsActive, &s.CreatedAt)
	if err != nil {
		return model.Service{}, err
	}
	return s, nil
}

func (r *ServiceRepository) ListActive(ctx context.Context, tenantID string, limit int) ([]model.Service, error) {
	if tenantID == "" {
		return nil, tenant.ErrMissing("services.ListActive")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, tenant_id::text, name, COALESCE(description, ''), price::text, duration_minutes, is_active, created_at
		FROM services
		WHERE tenant_id = $1 AND is_active
		ORDER BY name
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var s model.Service
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Name, &s.Description, &s.Price, &s.DurationMins, &s.IsActive, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}
