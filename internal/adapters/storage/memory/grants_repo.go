package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/consents"
)

type grantRepo struct {
	mu   sync.RWMutex
	byID map[string]consents.Grant
}

func NewGrantRepo() consents.Repository {
	return &grantRepo{
		byID: make(map[string]consents.Grant),
	}
}

func (r *grantRepo) Create(ctx context.Context, g consents.Grant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(g.ID) == "" {
		return errors.New("grant id required")
	}
	if _, exists := r.byID[g.ID]; exists {
		return errors.New("grant already exists")
	}
	r.byID[g.ID] = g
	return nil
}

func (r *grantRepo) GetByID(ctx context.Context, id string) (consents.Grant, error) {
	if err := ctx.Err(); err != nil {
		return consents.Grant{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.byID[id]
	if !ok {
		return consents.Grant{}, apperr.ErrNotFound
	}
	return g, nil
}

func (r *grantRepo) ListByConnection(ctx context.Context, connectionID string) ([]consents.Grant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]consents.Grant, 0)
	for _, g := range r.byID {
		if g.ConnectionID == connectionID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *grantRepo) Revoke(ctx context.Context, id, by string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if g.State != consents.StateActive {
		return apperr.ErrInvalidState
	}
	g.State = consents.StateRevoked
	g.RevokedBy = by
	g.RevokedAt = &at
	r.byID[id] = g
	return nil
}
