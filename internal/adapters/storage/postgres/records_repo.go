package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/records"
	"stable-sharing/internal/domain/scope"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

const recordColumns = `
	id, horse_id, tenant_id,
	category, kind, occurred_at, recorded_at,
	title, notes,
	file_name, content_type, storage_key,
	created_by, status`

func (r *RecordsRepo) Create(ctx context.Context, rec records.Record) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO horse_records (`+recordColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		rec.ID,
		rec.HorseID,
		rec.TenantID,
		string(rec.Category),
		rec.Kind,
		rec.OccurredAt,
		rec.RecordedAt,
		rec.Title,
		rec.Notes,
		rec.FileName,
		rec.ContentType,
		rec.StorageKey,
		rec.CreatedBy,
		string(rec.Status),
	)
	return err
}

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return records.Record{}, apperr.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM horse_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		return records.Record{}, notFound(err)
	}
	return rec, nil
}

// ListByHorse arma el WHERE según el filtro. Los límites de ventana son
// inclusivos; el caller ya llevó To a fin de día.
func (r *RecordsRepo) ListByHorse(ctx context.Context, horseID string, f records.Filter) ([]records.Record, error) {
	where := []string{"horse_id = $1", "status = 'active'"}
	args := []any{horseID}

	if len(f.Categories) > 0 {
		cats := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			cats = append(cats, string(c))
		}
		args = append(args, cats)
		where = append(where, fmt.Sprintf("category = ANY($%d)", len(args)))
	}
	if f.From != nil {
		args = append(args, *f.From)
		where = append(where, fmt.Sprintf("occurred_at >= $%d", len(args)))
	}
	if f.To != nil {
		args = append(args, *f.To)
		where = append(where, fmt.Sprintf("occurred_at <= $%d", len(args)))
	}

	q := `SELECT ` + recordColumns + ` FROM horse_records WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY occurred_at DESC, id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) Void(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE horse_records SET status = 'voided' WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func scanRecord(s rowScanner) (records.Record, error) {
	var rec records.Record
	var category, status string
	if err := s.Scan(
		&rec.ID,
		&rec.HorseID,
		&rec.TenantID,
		&category,
		&rec.Kind,
		&rec.OccurredAt,
		&rec.RecordedAt,
		&rec.Title,
		&rec.Notes,
		&rec.FileName,
		&rec.ContentType,
		&rec.StorageKey,
		&rec.CreatedBy,
		&status,
	); err != nil {
		return records.Record{}, err
	}
	rec.Category = scope.Category(category)
	rec.Status = records.Status(status)
	return rec, nil
}
