package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/model"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/tenant"
)

type CustomerRepository struct {
	pool *db.Pool
}

func NewCustomerRepository(pool *db.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) Create(ctx context.Context, tenantID string, c model.Customer) (model.Customer, error) {
	if tenantID == "" {
		return model.Customer{}, tenant.ErrMissing("customers.Create")
	}
	c.ID = uuid.NewString()
	c.TenantID = tenantID
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (id, tenant_id, name, phone, email, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, c.ID, tenantID, c.Name, c.Phone, c.Email, c.Notes).Scan(&c.CreatedAt)
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

func (r *CustomerRepository) Get(ctx context.Context, tenantID, customerID string) (model.Customer, error) {
	if tenantID == "" {
		return model.Customer{}, tenant.ErrMissing("customers.Get")
	}
	var c model.Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, tenant_id::text, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(notes, ''), created_at
		FROM customers
		WHERE id = $1 AND tenant_id = $2
	`, customerID, tenantID).Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt)
	if err != nil {
		return model.Customer{}, err
	}
	return c, nil
}

func (r *CustomerRepository) Update(ctx context.Context, tenantID string, c model.Customer) error {
	if tenantID == "" {
		return tenant.ErrMissing("customers.Update")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET name = $3, phone = $4, email = $5, notes = $6
		WHERE id = $1 AND tenant_id = $2
	`, c.ID, tenantID, c.Name, c.Phone, c.Email, c.Notes)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *CustomerRepository) List(ctx context.Context, tenantID string, limit int) ([]model.Customer, error) {
	if tenantID == "" {
		return nil, tenant.ErrMissing("customers.List")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, tenant_id::text, name, COALESCE(phone, ''), COALESCE(email, ''), COALESCE(notes, ''), created_at
		FROM customers
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.TenantID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// IsDuplicate reports a unique-constraint violation (e.g. same phone twice
// within one tenant).
func IsDuplicate(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
