package memory

import (
	"context"
	"sort"
	"sync"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/sharepacks"
)

type packKey struct {
	tenantID string
	key      string
}

type packRepo struct {
	mu    sync.RWMutex
	byKey map[packKey]sharepacks.Pack
}

func NewPackRepo() sharepacks.Repository {
	return &packRepo{
		byKey: make(map[packKey]sharepacks.Pack),
	}
}

func (r *packRepo) Create(ctx context.Context, p sharepacks.Pack) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := packKey{p.TenantID, p.Key}
	if _, exists := r.byKey[k]; exists {
		return apperr.Wrap(apperr.ErrInvalidState, "pack %s already exists", p.Key)
	}
	r.byKey[k] = p
	return nil
}

func (r *packRepo) Update(ctx context.Context, p sharepacks.Pack) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := packKey{p.TenantID, p.Key}
	if _, exists := r.byKey[k]; !exists {
		return apperr.ErrNotFound
	}
	r.byKey[k] = p
	return nil
}

func (r *packRepo) Get(ctx context.Context, tenantID, key string) (sharepacks.Pack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byKey[packKey{tenantID, key}]
	if !ok {
		return sharepacks.Pack{}, apperr.ErrNotFound
	}
	return p, nil
}

func (r *packRepo) ListByTenant(ctx context.Context, tenantID string) ([]sharepacks.Pack, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]sharepacks.Pack, 0)
	for k, p := range r.byKey {
		if k.tenantID == tenantID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *packRepo) Delete(ctx context.Context, tenantID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := packKey{tenantID, key}
	if _, exists := r.byKey[k]; !exists {
		return apperr.ErrNotFound
	}
	delete(r.byKey, k)
	return nil
}
