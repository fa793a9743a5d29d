package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/shares"
)

type SharesRepo struct {
	db *sql.DB
}

func NewSharesRepo(db *sql.DB) *SharesRepo {
	return &SharesRepo{db: db}
}

const shareColumns = `
	id, tenant_id, horse_id, token_digest,
	recipient_email, pack_key, scope,
	date_from, date_to, expires_at, state,
	created_by, created_at, revoked_at`

func (r *SharesRepo) Create(ctx context.Context, s shares.Share) error {
	sc, err := scopePtrToJSON(s.Scope)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO share_tokens (`+shareColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		s.ID,
		s.TenantID,
		s.HorseID,
		s.TokenDigest,
		s.RecipientEmail,
		s.PackKey,
		sc,
		toNullTime(s.From),
		toNullTime(s.To),
		toNullTime(s.ExpiresAt),
		string(s.State),
		s.CreatedBy,
		s.CreatedAt,
		toNullTime(s.RevokedAt),
	)
	return err
}

func (r *SharesRepo) GetByID(ctx context.Context, id string) (shares.Share, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return shares.Share{}, apperr.ErrNotFound
	}
	return r.getOne(ctx, `SELECT `+shareColumns+` FROM share_tokens WHERE id = $1`, id)
}

func (r *SharesRepo) GetByDigest(ctx context.Context, digest string) (shares.Share, error) {
	return r.getOne(ctx, `SELECT `+shareColumns+` FROM share_tokens WHERE token_digest = $1`, digest)
}

func (r *SharesRepo) getOne(ctx context.Context, q string, arg string) (shares.Share, error) {
	s, err := scanShare(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		return shares.Share{}, notFound(err)
	}
	return s, nil
}

func (r *SharesRepo) ListByHorse(ctx context.Context, tenantID, horseID string) ([]shares.Share, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+shareColumns+`
		FROM share_tokens
		WHERE tenant_id = $1 AND horse_id = $2
		ORDER BY created_at DESC
	`, tenantID, horseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]shares.Share, 0)
	for rows.Next() {
		s, err := scanShare(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Transition es un único UPDATE condicional; si no tocó filas se distingue
// entre inexistente y estado distinto.
func (r *SharesRepo) Transition(ctx context.Context, id string, from, to shares.State, at time.Time) error {
	var revokedAt sql.NullTime
	if to == shares.StateRevoked {
		revokedAt = sql.NullTime{Time: at, Valid: true}
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE share_tokens
		SET state = $3, revoked_at = COALESCE($4, revoked_at)
		WHERE id = $1 AND state = $2
	`, id, string(from), string(to), revokedAt)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return apperr.ErrInvalidState
}

func scanShare(s rowScanner) (shares.Share, error) {
	var sh shares.Share
	var sc sql.NullString
	var from, to, expires, revoked sql.NullTime
	var state string
	if err := s.Scan(
		&sh.ID,
		&sh.TenantID,
		&sh.HorseID,
		&sh.TokenDigest,
		&sh.RecipientEmail,
		&sh.PackKey,
		&sc,
		&from,
		&to,
		&expires,
		&state,
		&sh.CreatedBy,
		&sh.CreatedAt,
		&revoked,
	); err != nil {
		return shares.Share{}, err
	}
	d, err := scopePtrFromJSON(sc)
	if err != nil {
		return shares.Share{}, err
	}
	sh.Scope = d
	sh.From = fromNullTime(from)
	sh.To = fromNullTime(to)
	sh.ExpiresAt = fromNullTime(expires)
	sh.RevokedAt = fromNullTime(revoked)
	sh.State = shares.State(state)
	return sh, nil
}
