package connections

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/platform/logger"
	"stable-sharing/internal/platform/metrics"
	"stable-sharing/internal/platform/secrets"
	"stable-sharing/internal/platform/tasks"
	"stable-sharing/internal/ports/auth"
	"stable-sharing/internal/ports/capabilities"
	"stable-sharing/internal/ports/notify"

	"github.com/google/uuid"
)

var typePattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,39}$`)

// AcceptHook corre después de un accept exitoso, fuera del request
// (ej: presets de consent grants). Su error sólo se loguea.
type AcceptHook interface {
	ApplyPresets(ctx context.Context, c Connection) error
}

type AuditLog interface {
	audit.Recorder
	ListByConnection(ctx context.Context, connectionID string) ([]audit.Entry, error)
}

type Service struct {
	repo     Repository
	caps     capabilities.Resolver
	audit    AuditLog
	tasks    tasks.Dispatcher
	notifier notify.Notifier
	hook     AcceptHook
	log      logger.Logger
	now      func() time.Time
}

type Deps struct {
	Repo     Repository
	Caps     capabilities.Resolver
	Audit    AuditLog
	Tasks    tasks.Dispatcher
	Notifier notify.Notifier // opcional
	Log      logger.Logger   // opcional
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
		caps:     d.Caps,
		audit:    d.Audit,
		tasks:    disp,
		notifier: d.Notifier,
		log:      log.With(map[string]any{"component": "connections"}),
		now:      time.Now,
	}
}

// SetAcceptHook registra el hook de presets. Se setea después de construir
// porque el applier depende a su vez de este servicio.
func (s *Service) SetAcceptHook(h AcceptHook) {
	s.hook = h
}

// WithClock fija el reloj (tests de otros paquetes).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateInput struct {
	InitiatorTenantID string
	RecipientTenantID string
	RecipientEmail    string
	Type              Type
}

// Issued es el resultado de Create. Token es el handshake en claro.
type Issued struct {
	Connection Connection
	Token      string
}

func (s *Service) Create(ctx context.Context, actor auth.Actor, in CreateInput) (Issued, error) {
	initiator := strings.TrimSpace(in.InitiatorTenantID)
	recipient := strings.TrimSpace(in.RecipientTenantID)
	email := strings.TrimSpace(in.RecipientEmail)

	if err := capabilities.RequireManager(ctx, s.caps, actor, initiator); err != nil {
		return Issued{}, err
	}
	if recipient == "" && email == "" {
		return Issued{}, apperr.Wrap(apperr.ErrInvalidInput, "recipient_tenant_id or recipient_email is required")
	}
	if recipient == initiator {
		return Issued{}, apperr.Wrap(apperr.ErrInvalidInput, "a tenant cannot connect to itself")
	}
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return Issued{}, apperr.Wrap(apperr.ErrInvalidInput, "invalid recipient_email")
		}
	}

	typ := Type(strings.ToLower(strings.TrimSpace(string(in.Type))))
	if typ == "" {
		typ = DefaultType
	}
	if !typePattern.MatchString(string(typ)) {
		return Issued{}, apperr.Wrap(apperr.ErrInvalidInput, "invalid connection type %q", in.Type)
	}

	token, err := secrets.NewToken()
	if err != nil {
		return Issued{}, fmt.Errorf("connections: generate token: %w", err)
	}

	now := s.now()
	c := Connection{
		ID:                uuid.NewString(),
		InitiatorTenantID: initiator,
		RecipientTenantID: recipient,
		RecipientEmail:    email,
		Type:              typ,
		TokenDigest:       secrets.Digest(token),
		State:             StatePending,
		CreatedBy:         actor.ID,
		CreatedAt:         now,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, apperr.ErrDuplicateActive) {
			to := recipient
			if to == "" {
				to = email
			}
			return Issued{}, apperr.Wrap(apperr.ErrDuplicateActive, "%s -> %s (%s)", initiator, to, typ)
		}
		return Issued{}, apperr.Store(err)
	}

	s.recordCommitted(ctx, audit.Entry{
		ConnectionID: c.ID,
		Actor:        actor.ID,
		Kind:         audit.KindCreated,
		At:           now,
		Detail:       string(typ),
	})

	metrics.Transitions.WithLabelValues("connection", string(StatePending)).Inc()
	s.notify(notify.EventConnectionRequested, c, actor.ID)
	return Issued{Connection: c, Token: token}, nil
}

// Accept: sólo un manager del recipient. Para invitaciones externas tenantID
// indica con qué tenant acepta el actor.
func (s *Service) Accept(ctx context.Context, actor auth.Actor, token, tenantID string) (Connection, error) {
	c, err := s.byToken(ctx, token)
	if err != nil {
		return Connection{}, err
	}

	recipient := c.RecipientTenantID
	if recipient == "" {
		recipient = strings.TrimSpace(tenantID)
		if recipient == "" || recipient == c.InitiatorTenantID {
			return Connection{}, apperr.Wrap(apperr.ErrInvalidInput, "tenant_id of the accepting tenant is required")
		}
	}
	if err := capabilities.RequireManager(ctx, s.caps, actor, recipient); err != nil {
		return Connection{}, err
	}

	c, err = s.transition(ctx, c, OpAccept, Change{By: actor.ID, RecipientTenantID: recipient})
	if err != nil {
		return Connection{}, err
	}

	s.recordCommitted(ctx, audit.Entry{
		ConnectionID: c.ID,
		Actor:        actor.ID,
		Kind:         audit.KindAccepted,
		At:           *c.RespondedAt,
	})

	if s.hook != nil {
		accepted := c
		s.tasks.Dispatch("connection.presets", func(ctx context.Context) error {
			return s.hook.ApplyPresets(ctx, accepted)
		})
	}
	s.notify(notify.EventConnectionAccepted, c, actor.ID)
	return c, nil
}

// Reject: pending -> rejected, con motivo opcional.
func (s *Service) Reject(ctx context.Context, actor auth.Actor, token, tenantID, reason string) (Connection, error) {
	c, err := s.byToken(ctx, token)
	if err != nil {
		return Connection{}, err
	}

	recipient := c.RecipientTenantID
	if recipient == "" {
		recipient = strings.TrimSpace(tenantID)
	}
	if err := capabilities.RequireManager(ctx, s.caps, actor, recipient); err != nil {
		return Connection{}, err
	}
	if recipient == c.InitiatorTenantID {
		return Connection{}, apperr.Wrap(apperr.ErrUnauthorized, "initiator cannot reject its own request")
	}

	c, err = s.transition(ctx, c, OpReject, Change{
		By:                actor.ID,
		Reason:            strings.TrimSpace(reason),
		RecipientTenantID: recipient,
	})
	if err != nil {
		return Connection{}, err
	}

	s.recordCommitted(ctx, audit.Entry{
		ConnectionID: c.ID,
		Actor:        actor.ID,
		Kind:         audit.KindRejected,
		At:           *c.RespondedAt,
		Detail:       c.RejectReason,
	})

	s.notify(notify.EventConnectionRejected, c, actor.ID)
	return c, nil
}

// Revoke: accepted -> revoked, por cualquiera de las partes. No toca los
// grants: dejan de ser efectivos porque IsGrantEffective mira la conexión.
func (s *Service) Revoke(ctx context.Context, actor auth.Actor, connectionID string) (Connection, error) {
	c, err := s.GetByID(ctx, connectionID)
	if err != nil {
		return Connection{}, err
	}
	if err := s.requirePartyManager(ctx, actor, c); err != nil {
		return Connection{}, err
	}

	c, err = s.transition(ctx, c, OpRevoke, Change{By: actor.ID})
	if err != nil {
		return Connection{}, err
	}

	s.recordCommitted(ctx, audit.Entry{
		ConnectionID: c.ID,
		Actor:        actor.ID,
		Kind:         audit.KindRevoked,
		At:           *c.RevokedAt,
	})

	s.notify(notify.EventConnectionRevoked, c, actor.ID)
	return c, nil
}

// Get para miembros de cualquiera de las partes.
func (s *Service) Get(ctx context.Context, actor auth.Actor, id string) (Connection, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return Connection{}, err
	}
	for _, t := range c.Parties() {
		if actor.MemberOf(t) {
			return c, nil
		}
	}
	return Connection{}, apperr.Wrap(apperr.ErrNotFound, "connection %s", id)
}

func (s *Service) List(ctx context.Context, actor auth.Actor, tenantID string) ([]Connection, error) {
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

// Audit para managers de cualquiera de las partes.
func (s *Service) Audit(ctx context.Context, actor auth.Actor, id string) ([]audit.Entry, error) {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requirePartyManager(ctx, actor, c); err != nil {
		return nil, err
	}
	return s.audit.ListByConnection(ctx, c.ID)
}

// GetByID sin chequeo de actor (uso interno: consents, presets).
func (s *Service) GetByID(ctx context.Context, id string) (Connection, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Connection{}, apperr.Wrap(apperr.ErrNotFound, "connection id required")
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Connection{}, apperr.Wrap(apperr.ErrNotFound, "connection %s", id)
		}
		return Connection{}, apperr.Store(err)
	}
	return c, nil
}

func (s *Service) byToken(ctx context.Context, token string) (Connection, error) {
	token = strings.TrimSpace(token)
	if !secrets.LooksValid(token) {
		return Connection{}, apperr.Wrap(apperr.ErrNotFound, "connection token")
	}
	c, err := s.repo.GetByTokenDigest(ctx, secrets.Digest(token))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Connection{}, apperr.Wrap(apperr.ErrNotFound, "connection token")
		}
		return Connection{}, apperr.Store(err)
	}
	return c, nil
}

// transition valida contra la tabla y aplica el CAS en el store.
func (s *Service) transition(ctx context.Context, c Connection, op Op, ch Change) (Connection, error) {
	to, ok := CanTransition(c.State, op)
	if !ok {
		return Connection{}, apperr.Wrap(apperr.ErrInvalidState, "cannot %s a %s connection", op, c.State)
	}

	ch.At = s.now()
	if err := s.repo.Transition(ctx, c.ID, c.State, to, ch); err != nil {
		if errors.Is(err, apperr.ErrInvalidState) {
			return Connection{}, apperr.Wrap(apperr.ErrInvalidState, "connection %s changed concurrently", c.ID)
		}
		if errors.Is(err, apperr.ErrDuplicateActive) {
			return Connection{}, err
		}
		return Connection{}, apperr.Store(err)
	}

	at := ch.At
	c.State = to
	switch to {
	case StateAccepted, StateRejected:
		c.RespondedBy = ch.By
		c.RespondedAt = &at
		c.RejectReason = ch.Reason
		if c.RecipientTenantID == "" {
			c.RecipientTenantID = ch.RecipientTenantID
		}
	case StateRevoked:
		c.RevokedBy = ch.By
		c.RevokedAt = &at
	}
	metrics.Transitions.WithLabelValues("connection", string(to)).Inc()
	return c, nil
}

// recordCommitted agrega la entrada de una transición ya persistida. Un fallo
// del audit no revierte ni oculta la transición: se loguea.
func (s *Service) recordCommitted(ctx context.Context, e audit.Entry) {
	if err := s.audit.Record(ctx, e); err != nil {
		s.log.Error("audit append failed after committed transition", map[string]any{
			"connection_id": e.ConnectionID,
			"kind":          string(e.Kind),
			"error":         err,
		})
	}
}

func (s *Service) requirePartyManager(ctx context.Context, actor auth.Actor, c Connection) error {
	var lastErr error
	for _, t := range c.Parties() {
		if !actor.MemberOf(t) {
			continue
		}
		err := capabilities.RequireManager(ctx, s.caps, actor, t)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr != nil {
		return lastErr
	}
	return apperr.Wrap(apperr.ErrUnauthorized, "actor is not a party of connection %s", c.ID)
}

func (s *Service) notify(kind notify.EventKind, c Connection, actorID string) {
	if s.notifier == nil {
		return
	}
	ev := notify.Event{
		Kind:         kind,
		ConnectionID: c.ID,
		ActorID:      actorID,
		TenantIDs:    c.Parties(),
		At:           s.now(),
	}
	n := s.notifier
	s.tasks.Dispatch(string(kind), func(ctx context.Context) error {
		return n.Notify(ctx, ev)
	})
}
