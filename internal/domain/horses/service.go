package horses

import (
	"context"
	"errors"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/ports/auth"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	TenantID  string
	Name      string
	Breed     string
	Sex       Sex
	Color     string
	BirthDate *time.Time
	UELN      string
	Microchip string
	Notes     string
}

// Create registra un caballo. Cualquier miembro del tenant puede hacerlo.
func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (Horse, error) {
	tenantID := strings.TrimSpace(in.TenantID)
	if tenantID == "" || strings.TrimSpace(in.Name) == "" {
		return Horse{}, apperr.Wrap(apperr.ErrInvalidInput, "tenant_id and name are required")
	}
	if !actor.MemberOf(tenantID) {
		return Horse{}, apperr.Wrap(apperr.ErrUnauthorized, "actor is not a member of tenant %s", tenantID)
	}

	sex := Sex(strings.ToLower(strings.TrimSpace(string(in.Sex))))
	if sex == "" {
		sex = SexUnknown
	}
	if !sex.Valid() {
		return Horse{}, apperr.Wrap(apperr.ErrInvalidInput, "unknown sex %q", in.Sex)
	}

	now := s.now()
	h := Horse{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		Name:      strings.TrimSpace(in.Name),
		Breed:     strings.TrimSpace(in.Breed),
		Sex:       sex,
		Color:     strings.TrimSpace(in.Color),
		BirthDate: in.BirthDate,
		UELN:      strings.TrimSpace(in.UELN),
		Microchip: strings.TrimSpace(in.Microchip),
		Notes:     strings.TrimSpace(in.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, h); err != nil {
		return Horse{}, apperr.Store(err)
	}
	return h, nil
}

// Get devuelve el caballo si el actor pertenece a su tenant. Para no filtrar
// existencia, un caballo ajeno es ErrNotFound.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (Horse, error) {
	h, err := s.GetByID(ctx, id)
	if err != nil {
		return Horse{}, err
	}
	if !actor.MemberOf(h.TenantID) {
		return Horse{}, apperr.Wrap(apperr.ErrNotFound, "horse %s", id)
	}
	return h, nil
}

// GetByID sin chequeo de actor (uso interno del core).
func (s *Service) GetByID(ctx context.Context, id string) (Horse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Horse{}, apperr.Wrap(apperr.ErrNotFound, "horse id required")
	}
	h, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Horse{}, apperr.Wrap(apperr.ErrNotFound, "horse %s", id)
		}
		return Horse{}, apperr.Store(err)
	}
	return h, nil
}

func (s *Service) ListByTenant(ctx context.Context, actor auth.Actor, tenantID string) ([]Horse, error) {
	tenantID = strings.TrimSpace(tenantID)
	if !actor.MemberOf(tenantID) {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "actor is not a member of tenant %s", tenantID)
	}
	items, err := s.repo.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return items, nil
}
