package connections

import (
	"context"
	"time"
)

// Change son los campos que escribe una transición junto con el estado.
type Change struct {
	At     time.Time
	By     string
	Reason string
	// RecipientTenantID se fija al aceptar una invitación externa.
	RecipientTenantID string
}

type Repository interface {
	// Create devuelve apperr.ErrDuplicateActive si ya hay una conexión activa
	// para (initiator, recipient, type).
	Create(ctx context.Context, c Connection) error
	GetByID(ctx context.Context, id string) (Connection, error)
	GetByTokenDigest(ctx context.Context, digest string) (Connection, error)
	// ListByTenant devuelve conexiones donde el tenant es cualquiera de las partes.
	ListByTenant(ctx context.Context, tenantID string) ([]Connection, error)

	// Transition es compare-and-set sobre el estado guardado: si no es from
	// devuelve apperr.ErrInvalidState. Con to=accepted/rejected escribe
	// responded_*, con to=revoked escribe revoked_*.
	Transition(ctx context.Context, id string, from, to State, ch Change) error
}
