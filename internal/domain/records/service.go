package records

import (
	"context"
	"errors"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/horses"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/ports/auth"

	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// HorseLookup evita depender del Service completo de horses.
type HorseLookup interface {
	GetByID(ctx context.Context, id string) (horses.Horse, error)
}

type Service struct {
	repo   Repository
	horses HorseLookup
	now    func() time.Time
}

func NewService(repo Repository, horses HorseLookup) *Service {
	return &Service{
		repo:   repo,
		horses: horses,
		now:    time.Now,
	}
}

type CreateInput struct {
	Category    scope.Category
	Kind        string
	OccurredAt  time.Time
	Title       string
	Notes       string
	FileName    string
	ContentType string
	StorageKey  string
}

// Create registra un record para un caballo del tenant del actor.
func (s *Service) Create(ctx context.Context, actor auth.Actor, horseID string, in CreateInput) (Record, error) {
	h, err := s.horseFor(ctx, actor, horseID)
	if err != nil {
		return Record{}, err
	}

	cat, ok := scope.ParseCategory(string(in.Category))
	if !ok {
		return Record{}, apperr.Wrap(apperr.ErrInvalidInput, "unknown category %q", in.Category)
	}
	if strings.TrimSpace(in.Title) == "" || in.OccurredAt.IsZero() {
		return Record{}, apperr.Wrap(apperr.ErrInvalidInput, "title and occurred_at are required")
	}
	if cat == scope.CategoryFiles && strings.TrimSpace(in.StorageKey) == "" {
		return Record{}, apperr.Wrap(apperr.ErrInvalidInput, "storage_key is required for files")
	}

	now := s.now()
	rec := Record{
		ID:          uuid.NewString(),
		HorseID:     h.ID,
		TenantID:    h.TenantID,
		Category:    cat,
		Kind:        strings.TrimSpace(in.Kind),
		OccurredAt:  in.OccurredAt.UTC(),
		RecordedAt:  now,
		Title:       strings.TrimSpace(in.Title),
		Notes:       strings.TrimSpace(in.Notes),
		FileName:    strings.TrimSpace(in.FileName),
		ContentType: strings.TrimSpace(in.ContentType),
		StorageKey:  strings.TrimSpace(in.StorageKey),
		CreatedBy:   actor.ID,
		Status:      StatusActive,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return Record{}, apperr.Store(err)
	}
	return rec, nil
}

// List para staff del tenant dueño.
func (s *Service) List(ctx context.Context, actor auth.Actor, horseID string, filter Filter) ([]Record, error) {
	if _, err := s.horseFor(ctx, actor, horseID); err != nil {
		return nil, err
	}
	if err := scope.ValidateWindow(filter.From, filter.To); err != nil {
		return nil, err
	}
	filter.Limit = clampLimit(filter.Limit)
	items, err := s.repo.ListByHorse(ctx, horseID, filter)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return items, nil
}

// Void anula un record (no se borra; deja de aparecer en listados y vistas).
func (s *Service) Void(ctx context.Context, actor auth.Actor, horseID, recordID string) error {
	if _, err := s.horseFor(ctx, actor, horseID); err != nil {
		return err
	}
	rec, err := s.repo.GetByID(ctx, strings.TrimSpace(recordID))
	if err != nil || rec.HorseID != horseID {
		return apperr.Wrap(apperr.ErrNotFound, "record %s", recordID)
	}
	if rec.Status == StatusVoided {
		return nil
	}
	return apperr.Store(s.repo.Void(ctx, rec.ID))
}

// ListCategory es la lectura que usa el resolver: una sola categoría, acotada
// sólo por ventana y sin límite de filas; una vista compartida no se trunca.
// No chequea actor; el caller ya autorizó.
// El resultado se vuelve a filtrar en memoria por si el store ignora algún límite.
func (s *Service) ListCategory(ctx context.Context, horseID string, cat scope.Category, from, to *time.Time) ([]Record, error) {
	window := scope.Descriptor{From: from, To: to}
	items, err := s.repo.ListByHorse(ctx, horseID, Filter{
		Categories: []scope.Category{cat},
		From:       from,
		To:         window.UpperBound(),
	})
	if err != nil {
		return nil, apperr.Store(err)
	}

	out := make([]Record, 0, len(items))
	for _, rec := range items {
		if rec.HorseID != horseID || rec.Category != cat || rec.Status != StatusActive {
			continue
		}
		if !window.Contains(rec.OccurredAt) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Service) horseFor(ctx context.Context, actor auth.Actor, horseID string) (horses.Horse, error) {
	h, err := s.horses.GetByID(ctx, strings.TrimSpace(horseID))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return horses.Horse{}, err
		}
		return horses.Horse{}, apperr.Store(err)
	}
	if !actor.MemberOf(h.TenantID) {
		return horses.Horse{}, apperr.Wrap(apperr.ErrNotFound, "horse %s", horseID)
	}
	return h, nil
}

func clampLimit(n int) int {
	if n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}
