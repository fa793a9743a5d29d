package postgres

import (
	"context"
	"database/sql"

	"stable-sharing/internal/domain/audit"
)

// AuditRepo sólo inserta y lee. seq da el orden de inserción.
type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

const auditColumns = `id, share_id, connection_id, grant_id, actor, kind, at, scope, detail`

func (r *AuditRepo) Append(ctx context.Context, e audit.Entry) error {
	sc, err := scopePtrToJSON(e.Scope)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sharing_audit (`+auditColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		e.ID,
		toNullString(e.ShareID),
		toNullString(e.ConnectionID),
		toNullString(e.GrantID),
		e.Actor,
		string(e.Kind),
		e.At,
		sc,
		e.Detail,
	)
	return err
}

func (r *AuditRepo) ListByShare(ctx context.Context, shareID string) ([]audit.Entry, error) {
	return r.list(ctx, `SELECT `+auditColumns+` FROM sharing_audit WHERE share_id = $1 ORDER BY seq ASC`, shareID)
}

func (r *AuditRepo) ListByConnection(ctx context.Context, connectionID string) ([]audit.Entry, error) {
	return r.list(ctx, `SELECT `+auditColumns+` FROM sharing_audit WHERE connection_id = $1 ORDER BY seq ASC`, connectionID)
}

func (r *AuditRepo) list(ctx context.Context, q, arg string) ([]audit.Entry, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]audit.Entry, 0)
	for rows.Next() {
		var e audit.Entry
		var shareID, connID, grantID, sc sql.NullString
		var kind string
		if err := rows.Scan(&e.ID, &shareID, &connID, &grantID, &e.Actor, &kind, &e.At, &sc, &e.Detail); err != nil {
			return nil, err
		}
		d, err := scopePtrFromJSON(sc)
		if err != nil {
			return nil, err
		}
		e.ShareID, e.ConnectionID, e.GrantID = shareID.String, connID.String, grantID.String
		e.Kind = audit.Kind(kind)
		e.Scope = d
		out = append(out, e)
	}
	return out, rows.Err()
}
