package audit

import (
	"context"
	"strings"
	"time"

	"stable-sharing/internal/apperr"

	"github.com/google/uuid"
)

// Recorder es lo que necesitan los módulos que escriben en el log.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

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

// WithClock fija el reloj (tests de otros paquetes).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Record valida y agrega una entrada. ID y At se completan si vienen vacíos.
func (s *Service) Record(ctx context.Context, e Entry) error {
	e.ShareID = strings.TrimSpace(e.ShareID)
	e.ConnectionID = strings.TrimSpace(e.ConnectionID)
	e.GrantID = strings.TrimSpace(e.GrantID)
	e.Actor = strings.TrimSpace(e.Actor)

	if (e.ShareID == "") == (e.ConnectionID == "") {
		return apperr.Wrap(apperr.ErrInvalidInput, "audit entry needs exactly one of share_id or connection_id")
	}
	if e.GrantID != "" && e.ConnectionID == "" {
		return apperr.Wrap(apperr.ErrInvalidInput, "grant_id requires connection_id")
	}
	if !e.Kind.Valid() {
		return apperr.Wrap(apperr.ErrInvalidInput, "unknown audit kind %q", e.Kind)
	}
	if e.Actor == "" {
		return apperr.Wrap(apperr.ErrInvalidInput, "audit actor is required")
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = s.now()
	}
	if e.Scope != nil {
		cp := *e.Scope
		e.Scope = &cp
	}

	return apperr.Store(s.repo.Append(ctx, e))
}

// ListByShare sin chequeo de actor; shares.Service autoriza antes.
func (s *Service) ListByShare(ctx context.Context, shareID string) ([]Entry, error) {
	items, err := s.repo.ListByShare(ctx, strings.TrimSpace(shareID))
	if err != nil {
		return nil, apperr.Store(err)
	}
	return items, nil
}

// ListByConnection sin chequeo de actor; connections.Service autoriza antes.
func (s *Service) ListByConnection(ctx context.Context, connectionID string) ([]Entry, error) {
	items, err := s.repo.ListByConnection(ctx, strings.TrimSpace(connectionID))
	if err != nil {
		return nil, apperr.Store(err)
	}
	return items, nil
}
