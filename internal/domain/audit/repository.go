package audit

import "context"

// Repository no tiene Update ni Delete: el log es append-only.
type Repository interface {
	Append(ctx context.Context, e Entry) error
	ListByShare(ctx context.Context, shareID string) ([]Entry, error)
	ListByConnection(ctx context.Context, connectionID string) ([]Entry, error)
}
