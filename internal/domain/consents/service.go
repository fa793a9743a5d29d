package consents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/domain/connections"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/platform/logger"
	"stable-sharing/internal/platform/metrics"
	"stable-sharing/internal/platform/tasks"
	"stable-sharing/internal/ports/auth"
	"stable-sharing/internal/ports/capabilities"
	"stable-sharing/internal/ports/notify"

	"github.com/google/uuid"
)

// PresetActor es el actor que figura en grants y audit creados por presets.
const PresetActor = "system:presets"

// Connections es la parte de connections.Service que se usa acá.
type Connections interface {
	GetByID(ctx context.Context, id string) (connections.Connection, error)
}

type Service struct {
	repo     Repository
	conns    Connections
	caps     capabilities.Resolver
	audit    audit.Recorder
	tasks    tasks.Dispatcher
	notifier notify.Notifier
	log      logger.Logger
	now      func() time.Time
}

type Deps struct {
	Repo        Repository
	Connections Connections
	Caps        capabilities.Resolver
	Audit       audit.Recorder
	Tasks       tasks.Dispatcher
	Notifier    notify.Notifier // opcional
	Log         logger.Logger   // opcional
}

func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	disp := d.Tasks
	if disp == nil {
		disp = tasks.Inline{Log: log}
	}
	return &Service{
		repo:     d.Repo,
		conns:    d.Connections,
		caps:     d.Caps,
		audit:    d.Audit,
		tasks:    disp,
		notifier: d.Notifier,
		log:      log.With(map[string]any{"component": "consents"}),
		now:      time.Now,
	}
}

// WithClock fija el reloj (tests de otros paquetes).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateInput struct {
	// GrantorTenantID vacío = la parte de la conexión a la que pertenece el actor.
	GrantorTenantID string
	ResourceType    scope.Category
	AccessLevel     AccessLevel
	From            *time.Time
	To              *time.Time
	ForwardOnly     bool
}

// EffectiveResult es la respuesta de Effective.
type EffectiveResult struct {
	Grant      Grant
	Connection connections.Connection
	Effective  bool
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, connectionID string, in CreateInput) (Grant, error) {
	c, err := s.conns.GetByID(ctx, connectionID)
	if err != nil {
		return Grant{}, err
	}

	grantor := strings.TrimSpace(in.GrantorTenantID)
	if grantor == "" {
		grantor = actorParty(actor, c)
	}
	if !c.Involves(grantor) {
		return Grant{}, apperr.Wrap(apperr.ErrUnauthorized, "tenant %s is not a party of connection %s", grantor, c.ID)
	}
	if err := capabilities.RequireManager(ctx, s.caps, actor, grantor); err != nil {
		return Grant{}, err
	}

	return s.create(ctx, c, grantor, actor.ID, in, false)
}

// createFromPreset lo usa el applier. Sin actor humano ni chequeo de capability.
func (s *Service) createFromPreset(ctx context.Context, c connections.Connection, grantor string, in CreateInput) (Grant, error) {
	return s.create(ctx, c, grantor, PresetActor, in, true)
}

func (s *Service) create(ctx context.Context, c connections.Connection, grantor, actorID string, in CreateInput, fromPreset bool) (Grant, error) {
	if c.State != connections.StateAccepted {
		// también es un ErrInvalidState para quien sólo distingue estados
		return Grant{}, fmt.Errorf("%w (%w): connection %s is %s",
			apperr.ErrConnectionNotAccepted, apperr.ErrInvalidState, c.ID, c.State)
	}

	res, ok := scope.ParseCategory(string(in.ResourceType))
	if !ok {
		return Grant{}, apperr.Wrap(apperr.ErrInvalidInput, "unknown resource_type %q", in.ResourceType)
	}
	level := in.AccessLevel
	if level == "" {
		level = AccessRead
	}
	if !level.Valid() {
		return Grant{}, apperr.Wrap(apperr.ErrInvalidInput, "unknown access_level %q", in.AccessLevel)
	}
	if err := scope.ValidateWindow(in.From, in.To); err != nil {
		return Grant{}, err
	}

	now := s.now()
	g := Grant{
		ID:              uuid.NewString(),
		ConnectionID:    c.ID,
		GrantorTenantID: grantor,
		GranteeTenantID: c.Counterparty(grantor),
		ResourceType:    res,
		AccessLevel:     level,
		From:            in.From,
		To:              in.To,
		ForwardOnly:     in.ForwardOnly,
		State:           StateActive,
		FromPreset:      fromPreset,
		CreatedBy:       actorID,
		CreatedAt:       now,
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return Grant{}, apperr.Store(err)
	}

	snapshot := g.Scope()
	if err := s.audit.Record(ctx, audit.Entry{
		ConnectionID: c.ID,
		GrantID:      g.ID,
		Actor:        actorID,
		Kind:         audit.KindCreated,
		At:           now,
		Scope:        &snapshot,
		Detail:       string(g.AccessLevel),
	}); err != nil {
		return Grant{}, err
	}

	metrics.Transitions.WithLabelValues("grant", string(StateActive)).Inc()
	s.notify(notify.EventGrantCreated, g, actorID)
	return g, nil
}

// Revoke: sólo managers del grantor. Idempotente e irreversible.
func (s *Service) Revoke(ctx context.Context, actor auth.Actor, grantID string) (Grant, error) {
	g, err := s.GetByID(ctx, grantID)
	if err != nil {
		return Grant{}, err
	}
	if err := capabilities.RequireManager(ctx, s.caps, actor, g.GrantorTenantID); err != nil {
		return Grant{}, err
	}
	if g.State == StateRevoked {
		return g, nil
	}

	now := s.now()
	if err := s.repo.Revoke(ctx, g.ID, actor.ID, now); err != nil {
		if errors.Is(err, apperr.ErrInvalidState) {
			return s.GetByID(ctx, g.ID)
		}
		return Grant{}, apperr.Store(err)
	}
	g.State = StateRevoked
	g.RevokedBy = actor.ID
	g.RevokedAt = &now

	if err := s.audit.Record(ctx, audit.Entry{
		ConnectionID: g.ConnectionID,
		GrantID:      g.ID,
		Actor:        actor.ID,
		Kind:         audit.KindRevoked,
		At:           now,
	}); err != nil {
		return Grant{}, err
	}

	metrics.Transitions.WithLabelValues("grant", string(StateRevoked)).Inc()
	s.notify(notify.EventGrantRevoked, g, actor.ID)
	return g, nil
}

// Effective recalcula desde el store: grant + conexión, en cada llamada.
func (s *Service) Effective(ctx context.Context, grantID string) (EffectiveResult, error) {
	g, err := s.GetByID(ctx, grantID)
	if err != nil {
		return EffectiveResult{}, err
	}
	c, err := s.conns.GetByID(ctx, g.ConnectionID)
	if err != nil {
		return EffectiveResult{}, err
	}
	return EffectiveResult{
		Grant:      g,
		Connection: c,
		Effective:  IsGrantEffective(g, c, s.now()),
	}, nil
}

// EffectiveFor es Effective para un actor de cualquiera de las dos partes.
func (s *Service) EffectiveFor(ctx context.Context, actor auth.Actor, grantID string) (EffectiveResult, error) {
	res, err := s.Effective(ctx, grantID)
	if err != nil {
		return EffectiveResult{}, err
	}
	if !actor.MemberOf(res.Grant.GrantorTenantID) && !actor.MemberOf(res.Grant.GranteeTenantID) {
		return EffectiveResult{}, apperr.Wrap(apperr.ErrNotFound, "grant %s", grantID)
	}
	return res, nil
}

// ListByConnection para miembros de cualquiera de las partes.
func (s *Service) ListByConnection(ctx context.Context, actor auth.Actor, connectionID string) ([]Grant, error) {
	c, err := s.conns.GetByID(ctx, connectionID)
	if err != nil {
		return nil, err
	}
	if actorParty(actor, c) == "" {
		return nil, apperr.Wrap(apperr.ErrNotFound, "connection %s", connectionID)
	}
	items, err := s.repo.ListByConnection(ctx, c.ID)
	if err != nil {
		return nil, apperr.Store(err)
	}
	return items, nil
}

// GetByID sin chequeo de actor.
func (s *Service) GetByID(ctx context.Context, id string) (Grant, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Grant{}, apperr.Wrap(apperr.ErrNotFound, "grant id required")
	}
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Grant{}, apperr.Wrap(apperr.ErrNotFound, "grant %s", id)
		}
		return Grant{}, apperr.Store(err)
	}
	return g, nil
}

// actorParty devuelve la parte de la conexión a la que pertenece el actor
// (initiator primero).
func actorParty(actor auth.Actor, c connections.Connection) string {
	for _, t := range c.Parties() {
		if actor.MemberOf(t) {
			return t
		}
	}
	return ""
}

func (s *Service) notify(kind notify.EventKind, g Grant, actorID string) {
	if s.notifier == nil {
		return
	}
	ev := notify.Event{
		Kind:         kind,
		ConnectionID: g.ConnectionID,
		GrantID:      g.ID,
		ActorID:      actorID,
		TenantIDs:    []string{g.GrantorTenantID, g.GranteeTenantID},
		At:           s.now(),
	}
	n := s.notifier
	s.tasks.Dispatch(string(kind), func(ctx context.Context) error {
		return n.Notify(ctx, ev)
	})
}
