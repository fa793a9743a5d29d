// Package static resuelve capabilities desde una tabla en memoria. Se usa en
// tests y en dev cuando no hay plans-features.
package static

import (
	"context"
	"sync"

	"stable-sharing/internal/ports/capabilities"
)

var _ capabilities.Resolver = (*Resolver)(nil)

type key struct{ actor, tenant string }

type Resolver struct {
	mu      sync.RWMutex
	allowed map[key]bool
}

func New() *Resolver {
	return &Resolver{allowed: map[key]bool{}}
}

// Allow habilita sharing:manage para actorID en tenantID.
func (r *Resolver) Allow(actorID, tenantID string) *Resolver {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.allowed[key{actorID, tenantID}] = true
	return r
}

func (r *Resolver) Deny(actorID, tenantID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.allowed, key{actorID, tenantID})
}

func (r *Resolver) CanManageSharing(ctx context.Context, actorID, tenantID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.allowed[key{actorID, tenantID}], nil
}
