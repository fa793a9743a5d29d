package records

import "context"

type Repository interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, id string) (Record, error)
	// ListByHorse excluye voided y ordena por OccurredAt desc.
	ListByHorse(ctx context.Context, horseID string, filter Filter) ([]Record, error)
	Void(ctx context.Context, id string) error
}
