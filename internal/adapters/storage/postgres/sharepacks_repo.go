package postgres

import (
	"context"
	"database/sql"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/sharepacks"
)

type SharePacksRepo struct {
	db *sql.DB
}

func NewSharePacksRepo(db *sql.DB) *SharePacksRepo {
	return &SharePacksRepo{db: db}
}

const packColumns = `tenant_id, key, name, description, scope, created_at, updated_at`

func (r *SharePacksRepo) Create(ctx context.Context, p sharepacks.Pack) error {
	sc, err := scopeToJSON(p.Scope)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO share_packs (`+packColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, p.TenantID, p.Key, p.Name, p.Description, sc, p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err, "") {
		return apperr.Wrap(apperr.ErrInvalidState, "pack %s already exists", p.Key)
	}
	return err
}

func (r *SharePacksRepo) Update(ctx context.Context, p sharepacks.Pack) error {
	sc, err := scopeToJSON(p.Scope)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE share_packs
		SET name = $3, description = $4, scope = $5, updated_at = $6
		WHERE tenant_id = $1 AND key = $2
	`, p.TenantID, p.Key, p.Name, p.Description, sc, p.UpdatedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *SharePacksRepo) Get(ctx context.Context, tenantID, key string) (sharepacks.Pack, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+packColumns+` FROM share_packs WHERE tenant_id = $1 AND key = $2
	`, tenantID, key)
	p, err := scanPack(row)
	if err != nil {
		return sharepacks.Pack{}, notFound(err)
	}
	return p, nil
}

func (r *SharePacksRepo) ListByTenant(ctx context.Context, tenantID string) ([]sharepacks.Pack, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+packColumns+` FROM share_packs WHERE tenant_id = $1 ORDER BY key ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]sharepacks.Pack, 0)
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SharePacksRepo) Delete(ctx context.Context, tenantID, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM share_packs WHERE tenant_id = $1 AND key = $2`, tenantID, key)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func scanPack(s rowScanner) (sharepacks.Pack, error) {
	var p sharepacks.Pack
	var sc string
	if err := s.Scan(&p.TenantID, &p.Key, &p.Name, &p.Description, &sc, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return sharepacks.Pack{}, err
	}
	d, err := scopeFromJSON(sc)
	if err != nil {
		return sharepacks.Pack{}, err
	}
	p.Scope = d
	return p, nil
}
