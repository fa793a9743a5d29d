package postgres

import (
	"context"
	"database/sql"
	"strings"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/horses"
)

type HorsesRepo struct {
	db *sql.DB
}

func NewHorsesRepo(db *sql.DB) *HorsesRepo {
	return &HorsesRepo{db: db}
}

const horseColumns = `
	id, tenant_id,
	name, breed, sex, color,
	birth_date, ueln, microchip, notes,
	created_at, updated_at`

func (r *HorsesRepo) Create(ctx context.Context, h horses.Horse) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO horses (`+horseColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`,
		h.ID,
		h.TenantID,
		h.Name,
		h.Breed,
		string(h.Sex),
		h.Color,
		toNullTime(h.BirthDate),
		h.UELN,
		h.Microchip,
		h.Notes,
		h.CreatedAt,
		h.UpdatedAt,
	)
	return err
}

func (r *HorsesRepo) GetByID(ctx context.Context, id string) (horses.Horse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return horses.Horse{}, apperr.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+horseColumns+` FROM horses WHERE id = $1`, id)
	h, err := scanHorse(row)
	if err != nil {
		return horses.Horse{}, notFound(err)
	}
	return h, nil
}

func (r *HorsesRepo) ListByTenant(ctx context.Context, tenantID string) ([]horses.Horse, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+horseColumns+`
		FROM horses
		WHERE tenant_id = $1
		ORDER BY created_at ASC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]horses.Horse, 0)
	for rows.Next() {
		h, err := scanHorse(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanHorse(s rowScanner) (horses.Horse, error) {
	var h horses.Horse
	var sex string
	var bd sql.NullTime
	if err := s.Scan(
		&h.ID,
		&h.TenantID,
		&h.Name,
		&h.Breed,
		&sex,
		&h.Color,
		&bd,
		&h.UELN,
		&h.Microchip,
		&h.Notes,
		&h.CreatedAt,
		&h.UpdatedAt,
	); err != nil {
		return horses.Horse{}, err
	}
	h.Sex = horses.Sex(sex)
	// ojo: birth_date es date, pgx lo mapea a time.Time midnight UTC
	h.BirthDate = fromNullTime(bd)
	return h, nil
}
