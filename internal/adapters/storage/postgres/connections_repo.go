package postgres

import (
	"context"
	"database/sql"
	"strings"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/connections"
)

const (
	connectionsActiveIndex = "connections_one_active_idx"
	connectionsInviteIndex = "connections_one_active_invite_idx"
)

// activeViolation: choque con alguno de los dos índices de unicidad de
// conexiones vivas.
func activeViolation(err error) bool {
	return isUniqueViolation(err, connectionsActiveIndex) || isUniqueViolation(err, connectionsInviteIndex)
}

type ConnectionsRepo struct {
	db *sql.DB
}

func NewConnectionsRepo(db *sql.DB) *ConnectionsRepo {
	return &ConnectionsRepo{db: db}
}

const connectionColumns = `
	id, initiator_tenant_id, recipient_tenant_id, recipient_email, type,
	token_digest, state, reject_reason,
	created_by, created_at,
	responded_by, responded_at,
	revoked_by, revoked_at`

func (r *ConnectionsRepo) Create(ctx context.Context, c connections.Connection) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO connections (`+connectionColumns+`
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		c.ID,
		c.InitiatorTenantID,
		toNullString(c.RecipientTenantID),
		c.RecipientEmail,
		string(c.Type),
		c.TokenDigest,
		string(c.State),
		c.RejectReason,
		c.CreatedBy,
		c.CreatedAt,
		c.RespondedBy,
		toNullTime(c.RespondedAt),
		c.RevokedBy,
		toNullTime(c.RevokedAt),
	)
	if activeViolation(err) {
		return apperr.ErrDuplicateActive
	}
	return err
}

func (r *ConnectionsRepo) GetByID(ctx context.Context, id string) (connections.Connection, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return connections.Connection{}, apperr.ErrNotFound
	}
	c, err := scanConnection(r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM connections WHERE id = $1`, id))
	if err != nil {
		return connections.Connection{}, notFound(err)
	}
	return c, nil
}

func (r *ConnectionsRepo) GetByTokenDigest(ctx context.Context, digest string) (connections.Connection, error) {
	c, err := scanConnection(r.db.QueryRowContext(ctx, `SELECT `+connectionColumns+` FROM connections WHERE token_digest = $1`, digest))
	if err != nil {
		return connections.Connection{}, notFound(err)
	}
	return c, nil
}

func (r *ConnectionsRepo) ListByTenant(ctx context.Context, tenantID string) ([]connections.Connection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+connectionColumns+`
		FROM connections
		WHERE initiator_tenant_id = $1 OR recipient_tenant_id = $1
		ORDER BY created_at DESC
	`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]connections.Connection, 0)
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Transition: UPDATE condicional por estado. Al aceptar una invitación
// externa también fija recipient_tenant_id, lo que puede chocar con el
// índice de conexión activa.
func (r *ConnectionsRepo) Transition(ctx context.Context, id string, from, to connections.State, ch connections.Change) error {
	var q string
	args := []any{id, string(from), string(to)}

	switch to {
	case connections.StateAccepted, connections.StateRejected:
		q = `
			UPDATE connections
			SET state = $3, responded_by = $4, responded_at = $5, reject_reason = $6,
			    recipient_tenant_id = COALESCE(recipient_tenant_id, $7)
			WHERE id = $1 AND state = $2`
		args = append(args, ch.By, ch.At, ch.Reason, toNullString(ch.RecipientTenantID))
	case connections.StateRevoked:
		q = `
			UPDATE connections
			SET state = $3, revoked_by = $4, revoked_at = $5
			WHERE id = $1 AND state = $2`
		args = append(args, ch.By, ch.At)
	default:
		q = `UPDATE connections SET state = $3 WHERE id = $1 AND state = $2`
	}

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		if activeViolation(err) {
			return apperr.ErrDuplicateActive
		}
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

func scanConnection(s rowScanner) (connections.Connection, error) {
	var c connections.Connection
	var recipient sql.NullString
	var typ, state string
	var responded, revoked sql.NullTime
	if err := s.Scan(
		&c.ID,
		&c.InitiatorTenantID,
		&recipient,
		&c.RecipientEmail,
		&typ,
		&c.TokenDigest,
		&state,
		&c.RejectReason,
		&c.CreatedBy,
		&c.CreatedAt,
		&c.RespondedBy,
		&responded,
		&c.RevokedBy,
		&revoked,
	); err != nil {
		return connections.Connection{}, err
	}
	c.RecipientTenantID = recipient.String
	c.Type = connections.Type(typ)
	c.State = connections.State(state)
	c.RespondedAt = fromNullTime(responded)
	c.RevokedAt = fromNullTime(revoked)
	return c, nil
}
