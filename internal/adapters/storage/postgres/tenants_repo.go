package postgres

import (
	"context"
	"database/sql"
	"errors"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/ports/tenants"
)

// TenantsRepo implementa tenants.Directory sobre la tabla tenants, que
// sincroniza el servicio de cuentas.
type TenantsRepo struct {
	db *sql.DB
}

func NewTenantsRepo(db *sql.DB) *TenantsRepo {
	return &TenantsRepo{db: db}
}

var _ tenants.Directory = (*TenantsRepo)(nil)

func (r *TenantsRepo) KindOf(ctx context.Context, tenantID string) (tenants.Kind, error) {
	var kind string
	err := r.db.QueryRowContext(ctx, `SELECT kind FROM tenants WHERE id = $1`, tenantID).Scan(&kind)
	if err != nil {
		err = notFound(err)
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.Wrap(apperr.ErrNotFound, "tenant %s", tenantID)
		}
		return "", err
	}
	return tenants.Kind(kind), nil
}

// Upsert registra o actualiza el tipo de un tenant.
func (r *TenantsRepo) Upsert(ctx context.Context, tenantID string, kind tenants.Kind) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tenants (id, kind) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind
	`, tenantID, string(kind))
	return err
}
