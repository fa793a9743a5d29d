package postgres

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/consents"
	"stable-sharing/internal/domain/scope"
)

type GrantsRepo struct {
	db *sql.DB
}

func NewGrantsRepo(db *sql.DB) *GrantsRepo {
	return &GrantsRepo{db: db}
}

const grantColumns = `
	id, connection_id, grantor_tenant_id, grantee_tenant_id,
	resource_type, access_level, date_from, date_to,
	forward_only, state, from_preset,
	created_by, created_at, revoked_by, revoked_at`

func (r *GrantsRepo) Create(ctx context.Context, g consents.Grant) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO consent_grants (`+grantColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
	`,
		g.ID,
		g.ConnectionID,
		g.GrantorTenantID,
		g.GranteeTenantID,
		string(g.ResourceType),
		string(g.AccessLevel),
		toNullTime(g.From),
		toNullTime(g.To),
		g.ForwardOnly,
		string(g.State),
		g.FromPreset,
		g.CreatedBy,
		g.CreatedAt,
		g.RevokedBy,
		toNullTime(g.RevokedAt),
	)
	return err
}

func (r *GrantsRepo) GetByID(ctx context.Context, id string) (consents.Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return consents.Grant{}, apperr.ErrNotFound
	}
	g, err := scanGrant(r.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM consent_grants WHERE id = $1`, id))
	if err != nil {
		return consents.Grant{}, notFound(err)
	}
	return g, nil
}

func (r *GrantsRepo) ListByConnection(ctx context.Context, connectionID string) ([]consents.Grant, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+grantColumns+`
		FROM consent_grants
		WHERE connection_id = $1
		ORDER BY created_at ASC, id ASC
	`, connectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]consents.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GrantsRepo) Revoke(ctx context.Context, id, by string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE consent_grants
		SET state = 'revoked', revoked_by = $2, revoked_at = $3
		WHERE id = $1 AND state = 'active'
	`, id, by, at)
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

func scanGrant(s rowScanner) (consents.Grant, error) {
	var g consents.Grant
	var resource, level, state string
	var from, to, revoked sql.NullTime
	if err := s.Scan(
		&g.ID,
		&g.ConnectionID,
		&g.GrantorTenantID,
		&g.GranteeTenantID,
		&resource,
		&level,
		&from,
		&to,
		&g.ForwardOnly,
		&state,
		&g.FromPreset,
		&g.CreatedBy,
		&g.CreatedAt,
		&g.RevokedBy,
		&revoked,
	); err != nil {
		return consents.Grant{}, err
	}
	g.ResourceType = scope.Category(resource)
	g.AccessLevel = consents.AccessLevel(level)
	g.State = consents.State(state)
	g.From = fromNullTime(from)
	g.To = fromNullTime(to)
	g.RevokedAt = fromNullTime(revoked)
	return g, nil
}
