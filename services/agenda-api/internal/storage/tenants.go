package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/agendafacil/agendafacil/libs/db"
	"github.com/agendafacil/agendafacil/services/agenda-api/internal/model"
)

var ErrInvalidAPIKey = errors.New("invalid api key")

type TenantRepository struct {
	pool *db.Pool
}

func NewTenantRepository(pool *db.Pool) *TenantRepository {
	return &TenantRepository{pool: pool}
}

// Create registers a tenant and mints its API key. The raw key is returned
// exactly once; only the bcrypt hash is stored.
func (r *TenantRepository) Create(ctx context.Context, name, description, phone, email string) (model.Tenant, string, error) {
	rawKey := newAPIKey()
	hash, err := bcrypt.GenerateFromPassword([]byte(rawKey), bcrypt.DefaultCost)
	if err != nil {
		return model.Tenant{}, "", err
	}

	t := model.Tenant{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Phone:       phone,
		Email:       email,
		IsActive:    true,
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO tenants (id, name, description, phone, email, api_key_hash, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING created_at
	`, t.ID, t.Name, t.Description, t.Phone, t.Email, string(hash)).Scan(&t.CreatedAt)
	if err != nil {
		return model.Tenant{}, "", err
	}
	return t, rawKey, nil
}

func (r *TenantRepository) Get(ctx context.Context, tenantID string) (model.Tenant, error) {
	var t model.Tenant
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, COALESCE(description, ''), COALESCE(phone, ''), COALESCE(email, ''), is_active, created_at
		FROM tenants
		WHERE id = $1
	`, tenantID).Scan(&t.ID, &t.Name, &t.Description, &t.Phone, &t.Email, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return model.Tenant{}, err
	}
	return t, nil
}

func (r *TenantRepository) ListActive(ctx context.Context) ([]model.Tenant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, name, COALESCE(description, ''), COALESCE(phone, ''), COALESCE(email, ''), is_active, created_at
		FROM tenants
		WHERE is_active
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Tenant
	for rows.Next() {
		var t model.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.Phone, &t.Email, &t.IsActive, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// VerifyAPIKey compares the presented key against the stored hash for an
// active tenant. Inactive and unknown tenants both come back as invalid.
func (r *TenantRepository) VerifyAPIKey(ctx context.Context, tenantID, rawKey string) error {
	var hash string
	err := r.pool.QueryRow(ctx, `
		SELECT api_key_hash
		FROM tenants
		WHERE id = $1 AND is_active
	`, tenantID).Scan(&hash)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInvalidAPIKey
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawKey)) != nil {
		return ErrInvalidAPIKey
	}
	return nil
}

func newAPIKey() string {
	var b [24]byte
	_, _ = rand.Read(b[:])
	return "ak_" + hex.EncodeToString(b[:])
}
