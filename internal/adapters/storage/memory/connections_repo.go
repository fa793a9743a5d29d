package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/connections"
)

type connectionRepo struct {
	mu   sync.RWMutex
	byID map[string]connections.Connection
}

func NewConnectionRepo() connections.Repository {
	return &connectionRepo{
		byID: make(map[string]connections.Connection),
	}
}

// activeClash replica los índices únicos parciales de postgres: una sola
// conexión pending/accepted por (initiator, recipient, type), y por
// (initiator, lower(email), type) para invitaciones externas sin bind.
func (r *connectionRepo) activeClash(c connections.Connection) bool {
	for _, other := range r.byID {
		if other.ID == c.ID || !other.State.Active() {
			continue
		}
		if c.SameActiveKey(other) {
			return true
		}
	}
	return false
}

func (r *connectionRepo) Create(ctx context.Context, c connections.Connection) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(c.ID) == "" {
		return errors.New("connection id required")
	}
	if _, exists := r.byID[c.ID]; exists {
		return errors.New("connection already exists")
	}
	if r.activeClash(c) {
		return apperr.ErrDuplicateActive
	}
	r.byID[c.ID] = c
	return nil
}

func (r *connectionRepo) GetByID(ctx context.Context, id string) (connections.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.byID[id]
	if !ok {
		return connections.Connection{}, apperr.ErrNotFound
	}
	return c, nil
}

func (r *connectionRepo) GetByTokenDigest(ctx context.Context, digest string) (connections.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.byID {
		if c.TokenDigest == digest {
			return c, nil
		}
	}
	return connections.Connection{}, apperr.ErrNotFound
}

func (r *connectionRepo) ListByTenant(ctx context.Context, tenantID string) ([]connections.Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]connections.Connection, 0)
	for _, c := range r.byID {
		if c.Involves(tenantID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *connectionRepo) Transition(ctx context.Context, id string, from, to connections.State, ch connections.Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if c.State != from {
		return apperr.ErrInvalidState
	}

	next := c
	next.State = to
	at := ch.At
	switch to {
	case connections.StateAccepted, connections.StateRejected:
		next.RespondedAt, next.RespondedBy, next.RejectReason = &at, ch.By, ch.Reason
		if next.RecipientTenantID == "" {
			next.RecipientTenantID = ch.RecipientTenantID
		}
	case connections.StateRevoked:
		next.RevokedAt, next.RevokedBy = &at, ch.By
	}

	// bind de invitación externa: puede chocar con otra conexión activa
	if c.RecipientTenantID == "" && next.State.Active() && r.activeClash(next) {
		return apperr.ErrDuplicateActive
	}
	r.byID[id] = next
	return nil
}
