package sharepacks

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/ports/auth"
	"stable-sharing/internal/ports/capabilities"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}$`)

func validKey(k string) bool {
	return keyPattern.MatchString(k)
}

type Service struct {
	repo   Repository
	caps   capabilities.Resolver
	system map[string]Pack
	now    func() time.Time
}

// NewService arma el catálogo con los packs de sistema dados (nil = seed embebido).
func NewService(repo Repository, caps capabilities.Resolver, system []Pack) *Service {
	if system == nil {
		system = DefaultSystemPacks()
	}
	m := make(map[string]Pack, len(system))
	for _, p := range system {
		p.TenantID = ""
		p.IsSystem = true
		m[p.Key] = p
	}
	return &Service{
		repo:   repo,
		caps:   caps,
		system: m,
		now:    time.Now,
	}
}

type CreateInput struct {
	TenantID    string
	Key         string
	Name        string
	Description string
	Scope       scope.Descriptor
}

type UpdateInput struct {
	Name        string
	Description string
	Scope       scope.Descriptor
}

// System devuelve los packs de sistema ordenados por key.
func (s *Service) System() []Pack {
	out := make([]Pack, 0, len(s.system))
	for _, p := range s.system {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// MostRestrictive es el default cuando un share no trae pack ni scope:
// el pack de sistema con menos categorías, desempate por key.
func (s *Service) MostRestrictive() Pack {
	var best Pack
	bestN := -1
	for _, p := range s.System() {
		n := len(p.Scope.Categories())
		if bestN == -1 || n < bestN {
			best, bestN = p, n
		}
	}
	return best
}

// Resolve busca primero el pack del tenant y después el de sistema.
// Se llama en cada lectura: nunca se cachea el scope de un pack.
func (s *Service) Resolve(ctx context.Context, tenantID, key string) (Pack, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	tenantID = strings.TrimSpace(tenantID)
	if key == "" {
		return Pack{}, apperr.Wrap(apperr.ErrNotFound, "pack key required")
	}

	if tenantID != "" {
		p, err := s.repo.Get(ctx, tenantID, key)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return Pack{}, apperr.Store(err)
		}
	}
	if p, ok := s.system[key]; ok {
		return p, nil
	}
	return Pack{}, apperr.Wrap(apperr.ErrNotFound, "pack %s", key)
}

// List devuelve sistema + tenant. Basta con ser miembro.
func (s *Service) List(ctx context.Context, actor auth.Actor, tenantID string) ([]Pack, error) {
	tenantID = strings.TrimSpace(tenantID)
	if !actor.MemberOf(tenantID) {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "actor is not a member of tenant %s", tenantID)
	}
	own, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	sort.Slice(own, func(i, j int) bool { return own[i].Key < own[j].Key })
	return append(s.System(), own...), nil
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (Pack, error) {
	tenantID := strings.TrimSpace(in.TenantID)
	if err := capabilities.RequireManager(ctx, s.caps, actor, tenantID); err != nil {
		return Pack{}, err
	}

	key := strings.ToLower(strings.TrimSpace(in.Key))
	if !validKey(key) {
		return Pack{}, apperr.Wrap(apperr.ErrInvalidInput, "pack key must match %s", keyPattern.String())
	}
	if _, ok := s.system[key]; ok {
		return Pack{}, apperr.Wrap(apperr.ErrInvalidInput, "pack key %s is reserved", key)
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pack{}, apperr.Wrap(apperr.ErrInvalidInput, "name is required")
	}
	if err := in.Scope.Validate(); err != nil {
		return Pack{}, err
	}

	if _, err := s.repo.Get(ctx, tenantID, key); err == nil {
		return Pack{}, apperr.Wrap(apperr.ErrInvalidState, "pack %s already exists", key)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return Pack{}, apperr.Store(err)
	}

	now := s.now()
	p := Pack{
		TenantID:    tenantID,
		Key:         key,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Scope:       in.Scope,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return Pack{}, apperr.Store(err)
	}
	return p, nil
}

// Update reemplaza el descriptor. Los shares que referencian el pack ven el
// cambio en la próxima lectura.
func (s *Service) Update(ctx context.Context, actor auth.Actor, tenantID, key string, in UpdateInput) (Pack, error) {
	tenantID = strings.TrimSpace(tenantID)
	key = strings.ToLower(strings.TrimSpace(key))
	if err := capabilities.RequireManager(ctx, s.caps, actor, tenantID); err != nil {
		return Pack{}, err
	}
	if _, ok := s.system[key]; ok {
		return Pack{}, apperr.Wrap(apperr.ErrInvalidState, "system pack %s is read-only", key)
	}
	if strings.TrimSpace(in.Name) == "" {
		return Pack{}, apperr.Wrap(apperr.ErrInvalidInput, "name is required")
	}
	if err := in.Scope.Validate(); err != nil {
		return Pack{}, err
	}

	p, err := s.repo.Get(ctx, tenantID, key)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Pack{}, apperr.Wrap(apperr.ErrNotFound, "pack %s", key)
		}
		return Pack{}, apperr.Store(err)
	}

	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Scope = in.Scope
	p.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, p); err != nil {
		return Pack{}, apperr.Store(err)
	}
	return p, nil
}

// Delete sólo para packs del tenant. Los shares que lo usaban dejan de resolver.
func (s *Service) Delete(ctx context.Context, actor auth.Actor, tenantID, key string) error {
	tenantID = strings.TrimSpace(tenantID)
	key = strings.ToLower(strings.TrimSpace(key))
	if err := capabilities.RequireManager(ctx, s.caps, actor, tenantID); err != nil {
		return err
	}
	if _, ok := s.system[key]; ok {
		return apperr.Wrap(apperr.ErrInvalidState, "system pack %s cannot be deleted", key)
	}
	if err := s.repo.Delete(ctx, tenantID, key); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "pack %s", key)
		}
		return apperr.Store(err)
	}
	return nil
}
