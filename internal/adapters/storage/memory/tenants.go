package memory

import (
	"context"
	"strings"
	"sync"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/ports/tenants"
)

// TenantDirectory guarda el tipo de cada tenant. En dev se carga desde
// config (tenants.kinds).
type TenantDirectory struct {
	mu    sync.RWMutex
	kinds map[string]tenants.Kind
}

func NewTenantDirectory(kinds map[string]string) *TenantDirectory {
	d := &TenantDirectory{kinds: make(map[string]tenants.Kind, len(kinds))}
	for id, k := range kinds {
		d.Set(id, tenants.Kind(k))
	}
	return d
}

func (d *TenantDirectory) Set(tenantID string, kind tenants.Kind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.kinds[strings.TrimSpace(tenantID)] = tenants.Kind(strings.ToLower(strings.TrimSpace(string(kind))))
}

func (d *TenantDirectory) KindOf(ctx context.Context, tenantID string) (tenants.Kind, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	k, ok := d.kinds[tenantID]
	if !ok {
		return "", apperr.Wrap(apperr.ErrNotFound, "tenant %s", tenantID)
	}
	return k, nil
}
