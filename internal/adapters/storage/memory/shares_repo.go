package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/shares"
)

type shareRepo struct {
	mu       sync.RWMutex
	byID     map[string]shares.Share
	byDigest map[string]string
}

func NewShareRepo() shares.Repository {
	return &shareRepo{
		byID:     make(map[string]shares.Share),
		byDigest: make(map[string]string),
	}
}

func (r *shareRepo) Create(ctx context.Context, s shares.Share) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.TokenDigest) == "" {
		return errors.New("share id and token digest required")
	}
	if _, exists := r.byID[s.ID]; exists {
		return errors.New("share already exists")
	}
	if _, exists := r.byDigest[s.TokenDigest]; exists {
		return errors.New("share token digest collision")
	}
	r.byID[s.ID] = s
	r.byDigest[s.TokenDigest] = s.ID
	return nil
}

func (r *shareRepo) GetByID(ctx context.Context, id string) (shares.Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[id]
	if !ok {
		return shares.Share{}, apperr.ErrNotFound
	}
	return s, nil
}

func (r *shareRepo) GetByDigest(ctx context.Context, digest string) (shares.Share, error) {
	if err := ctx.Err(); err != nil {
		return shares.Share{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byDigest[digest]
	if !ok {
		return shares.Share{}, apperr.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *shareRepo) ListByHorse(ctx context.Context, tenantID, horseID string) ([]shares.Share, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]shares.Share, 0)
	for _, s := range r.byID {
		if s.TenantID == tenantID && s.HorseID == horseID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *shareRepo) Transition(ctx context.Context, id string, from, to shares.State, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return apperr.ErrNotFound
	}
	if s.State != from {
		return apperr.ErrInvalidState
	}
	s.State = to
	if to == shares.StateRevoked {
		s.RevokedAt = &at
	}
	r.byID[id] = s
	return nil
}
