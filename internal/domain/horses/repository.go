package horses

import "context"

type Repository interface {
	Create(ctx context.Context, h Horse) error
	GetByID(ctx context.Context, id string) (Horse, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Horse, error)
}
