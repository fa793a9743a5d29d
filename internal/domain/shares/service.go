package shares

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/domain/horses"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/domain/sharepacks"
	"stable-sharing/internal/platform/metrics"
	"stable-sharing/internal/platform/secrets"
	"stable-sharing/internal/ports/auth"
	"stable-sharing/internal/ports/capabilities"

	"github.com/google/uuid"
)

// Horses es la parte de horses.Service que se usa acá.
type Horses interface {
	GetByID(ctx context.Context, id string) (horses.Horse, error)
	BelongsTo(ctx context.Context, horseID, tenantID string) (horses.Horse, error)
}

// Packs es la parte de sharepacks.Service que se usa acá.
type Packs interface {
	Resolve(ctx context.Context, tenantID, key string) (sharepacks.Pack, error)
	MostRestrictive() sharepacks.Pack
}

const discardTimeout = 2 * time.Second

type AuditLog interface {
	audit.Recorder
	ListByShare(ctx context.Context, shareID string) ([]audit.Entry, error)
}

type Service struct {
	repo   Repository
	horses Horses
	packs  Packs
	caps   capabilities.Resolver
	audit  AuditLog
	now    func() time.Time
}

func NewService(repo Repository, h Horses, p Packs, caps capabilities.Resolver, log AuditLog) *Service {
	return &Service{
		repo:   repo,
		horses: h,
		packs:  p,
		caps:   caps,
		audit:  log,
		now:    time.Now,
	}
}

// WithClock fija el reloj (tests de otros paquetes).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateInput struct {
	TenantID string
	HorseID  string

	// A lo sumo uno. Ninguno = pack de sistema más restrictivo.
	PackKey string
	Scope   *scope.Descriptor

	From      *time.Time
	To        *time.Time
	ExpiresAt *time.Time

	RecipientEmail string
}

// Issued es el resultado de Create. Token sólo existe en esta respuesta.
type Issued struct {
	Share Share
	Token string
}

// View decora un share con su efectividad calculada.
type View struct {
	Share     Share
	Effective bool
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (Issued, error) {
	tenantID := strings.TrimSpace(in.TenantID)
	if err := capabilities.RequireManager(ctx, s.caps, actor, tenantID); err != nil {
		return Issued{}, err
	}

	h, err := s.horses.BelongsTo(ctx, in.HorseID, tenantID)
	if err != nil {
		return Issued{}, err
	}

	packKey := strings.TrimSpace(in.PackKey)
	if packKey != "" && in.Scope != nil {
		return Issued{}, apperr.Wrap(apperr.ErrInvalidScope, "pack_key and a custom scope are mutually exclusive")
	}

	var base scope.Descriptor
	var custom *scope.Descriptor
	switch {
	case in.Scope != nil:
		if in.Scope.IsEmpty() {
			return Issued{}, apperr.Wrap(apperr.ErrInvalidScope, "custom scope enables no category")
		}
		if err := in.Scope.Validate(); err != nil {
			return Issued{}, err
		}
		cp := *in.Scope
		custom = &cp
		base = cp
	case packKey != "":
		p, err := s.packs.Resolve(ctx, tenantID, packKey)
		if err != nil {
			return Issued{}, err
		}
		base = p.Scope
	default:
		p := s.packs.MostRestrictive()
		packKey = p.Key
		base = p.Scope
	}

	if err := scope.ValidateWindow(in.From, in.To); err != nil {
		return Issued{}, err
	}

	now := s.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return Issued{}, apperr.Wrap(apperr.ErrInvalidInput, "expires_at must be in the future")
	}

	email := strings.TrimSpace(in.RecipientEmail)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Issued{}, apperr.Wrap(apperr.ErrInvalidInput, "invalid recipient_email")
		}
	}

	token, err := secrets.NewToken()
	if err != nil {
		return Issued{}, fmt.Errorf("shares: generate token: %w", err)
	}

	sh := Share{
		ID:             uuid.NewString(),
		TenantID:       tenantID,
		HorseID:        h.ID,
		TokenDigest:    secrets.Digest(token),
		RecipientEmail: email,
		PackKey:        packKey,
		Scope:          custom,
		From:           in.From,
		To:             in.To,
		ExpiresAt:      in.ExpiresAt,
		State:          StateActive,
		CreatedBy:      actor.ID,
		CreatedAt:      now,
	}
	if err := s.repo.Create(ctx, sh); err != nil {
		return Issued{}, apperr.Store(err)
	}

	snapshot := sh.BaseScope(base)
	if err := s.audit.Record(ctx, audit.Entry{
		ShareID: sh.ID,
		Actor:   actor.ID,
		Kind:    audit.KindCreated,
		At:      now,
		Scope:   &snapshot,
		Detail:  describeSource(sh),
	}); err != nil {
		// sin entrada created el token nunca se entrega: el share no debe quedar activo
		s.discard(ctx, sh.ID, now)
		return Issued{}, err
	}

	metrics.Transitions.WithLabelValues("share", string(StateActive)).Inc()
	return Issued{Share: sh, Token: token}, nil
}

// Revoke es idempotente: revocado o expirado guardado = no-op; activo pero
// vencido = pasa a expired con expired_detected; activo = revoked.
func (s *Service) Revoke(ctx context.Context, actor auth.Actor, shareID string) (Share, error) {
	sh, err := s.getShare(ctx, shareID)
	if err != nil {
		return Share{}, err
	}
	if err := capabilities.RequireManager(ctx, s.caps, actor, sh.TenantID); err != nil {
		return Share{}, err
	}
	if sh.State != StateActive {
		return sh, nil
	}

	now := s.now()
	to, kind := StateRevoked, audit.KindRevoked
	if !IsEffective(sh, now) {
		to, kind = StateExpired, audit.KindExpiredDetected
	}

	if err := s.repo.Transition(ctx, sh.ID, StateActive, to, now); err != nil {
		if errors.Is(err, apperr.ErrInvalidState) {
			// otro request ganó la transición; el resultado es el mismo
			return s.getShare(ctx, sh.ID)
		}
		return Share{}, apperr.Store(err)
	}

	sh.State = to
	if to == StateRevoked {
		sh.RevokedAt = &now
	}

	if err := s.audit.Record(ctx, audit.Entry{
		ShareID: sh.ID,
		Actor:   actor.ID,
		Kind:    kind,
		At:      now,
	}); err != nil {
		return Share{}, err
	}

	metrics.Transitions.WithLabelValues("share", string(to)).Inc()
	return sh, nil
}

// discard revoca un share recién creado cuyo alta no quedó auditada. Corre
// aunque ctx ya esté vencido.
func (s *Service) discard(ctx context.Context, shareID string, at time.Time) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()
	_ = s.repo.Transition(ctx, shareID, StateActive, StateRevoked, at)
}

// List para cualquier miembro del tenant dueño del caballo.
func (s *Service) List(ctx context.Context, actor auth.Actor, horseID string) ([]View, error) {
	h, err := s.horses.GetByID(ctx, horseID)
	if err != nil {
		return nil, err
	}
	if !actor.MemberOf(h.TenantID) {
		return nil, apperr.Wrap(apperr.ErrNotFound, "horse %s", horseID)
	}

	items, err := s.repo.ListByHorse(ctx, h.TenantID, h.ID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	now := s.now()
	out := make([]View, 0, len(items))
	for _, sh := range items {
		out = append(out, View{Share: sh, Effective: IsEffective(sh, now)})
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor auth.Actor, shareID string) (View, error) {
	sh, err := s.getShare(ctx, shareID)
	if err != nil {
		return View{}, err
	}
	if !actor.MemberOf(sh.TenantID) {
		return View{}, apperr.Wrap(apperr.ErrNotFound, "share %s", shareID)
	}
	return View{Share: sh, Effective: IsEffective(sh, s.now())}, nil
}

// Audit devuelve el log del share a los managers del tenant dueño.
func (s *Service) Audit(ctx context.Context, actor auth.Actor, shareID string) ([]audit.Entry, error) {
	sh, err := s.getShare(ctx, shareID)
	if err != nil {
		return nil, err
	}
	if err := capabilities.RequireManager(ctx, s.caps, actor, sh.TenantID); err != nil {
		return nil, err
	}
	return s.audit.ListByShare(ctx, sh.ID)
}

// FindByToken busca por digest. No valida efectividad; eso es del caller.
func (s *Service) FindByToken(ctx context.Context, token string) (Share, error) {
	token = strings.TrimSpace(token)
	if !secrets.LooksValid(token) {
		return Share{}, apperr.Wrap(apperr.ErrNotFound, "share token")
	}
	sh, err := s.repo.GetByDigest(ctx, secrets.Digest(token))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Share{}, apperr.Wrap(apperr.ErrNotFound, "share token")
		}
		return Share{}, apperr.Store(err)
	}
	return sh, nil
}

// BaseScope re-resuelve el pack (o toma el custom) y aplica la ventana del
// share. Un pack borrado devuelve ErrNotFound.
func (s *Service) BaseScope(ctx context.Context, sh Share) (scope.Descriptor, error) {
	if sh.Scope != nil {
		return sh.BaseScope(*sh.Scope), nil
	}
	p, err := s.packs.Resolve(ctx, sh.TenantID, sh.PackKey)
	if err != nil {
		return scope.Descriptor{}, err
	}
	return sh.BaseScope(p.Scope), nil
}

func (s *Service) getShare(ctx context.Context, id string) (Share, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Share{}, apperr.Wrap(apperr.ErrNotFound, "share id required")
	}
	sh, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Share{}, apperr.Wrap(apperr.ErrNotFound, "share %s", id)
		}
		return Share{}, apperr.Store(err)
	}
	return sh, nil
}

func describeSource(sh Share) string {
	if sh.Scope != nil {
		return "custom scope"
	}
	return "pack " + sh.PackKey
}
