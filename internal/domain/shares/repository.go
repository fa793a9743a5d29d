package shares

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, s Share) error
	GetByID(ctx context.Context, id string) (Share, error)
	GetByDigest(ctx context.Context, digest string) (Share, error)
	ListByHorse(ctx context.Context, tenantID, horseID string) ([]Share, error)

	// Transition cambia el estado sólo si el actual es from (compare-and-set).
	// Si el share existe pero está en otro estado devuelve apperr.ErrInvalidState.
	// at se guarda como revoked_at cuando to == StateRevoked.
	Transition(ctx context.Context, id string, from, to State, at time.Time) error
}
