package sharepacks

import "context"

// Repository guarda sólo packs de tenants. Los de sistema viven en el seed embebido.
type Repository interface {
	Create(ctx context.Context, p Pack) error
	Update(ctx context.Context, p Pack) error
	Get(ctx context.Context, tenantID, key string) (Pack, error)
	ListByTenant(ctx context.Context, tenantID string) ([]Pack, error)
	Delete(ctx context.Context, tenantID, key string) error
}
