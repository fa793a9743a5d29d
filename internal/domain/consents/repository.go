package consents

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, g Grant) error
	GetByID(ctx context.Context, id string) (Grant, error)
	ListByConnection(ctx context.Context, connectionID string) ([]Grant, error)

	// Revoke es compare-and-set active -> revoked. Si el grant ya no está
	// activo devuelve apperr.ErrInvalidState.
	Revoke(ctx context.Context, id, by string, at time.Time) error
}
