package shareview

import (
	"context"
	"errors"
	"net/http"
	"time"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/domain/audit"
	"stable-sharing/internal/domain/consents"
	"stable-sharing/internal/domain/horses"
	"stable-sharing/internal/domain/records"
	"stable-sharing/internal/domain/scope"
	"stable-sharing/internal/domain/shares"
	"stable-sharing/internal/platform/logger"
	"stable-sharing/internal/platform/metrics"
	"stable-sharing/internal/ports/auth"

	"golang.org/x/sync/errgroup"
)

const DefaultTimeout = 3 * time.Second

type Shares interface {
	FindByToken(ctx context.Context, token string) (shares.Share, error)
	BaseScope(ctx context.Context, sh shares.Share) (scope.Descriptor, error)
}

type Horses interface {
	BelongsTo(ctx context.Context, horseID, tenantID string) (horses.Horse, error)
}

type Records interface {
	ListCategory(ctx context.Context, horseID string, cat scope.Category, from, to *time.Time) ([]records.Record, error)
}

type Grants interface {
	Effective(ctx context.Context, grantID string) (consents.EffectiveResult, error)
}

// Resolver arma las vistas de sólo lectura para links públicos y para
// partners bajo consent grants. Nunca modifica estado salvo el audit.
type Resolver struct {
	shares  Shares
	horses  Horses
	records Records
	grants  Grants
	audit   audit.Recorder
	log     logger.Logger
	timeout time.Duration
	now     func() time.Time
}

type Deps struct {
	Shares  Shares
	Horses  Horses
	Records Records
	Grants  Grants
	Audit   audit.Recorder
	Log     logger.Logger
	Timeout time.Duration
}

func NewResolver(d Deps) *Resolver {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		shares:  d.Shares,
		horses:  d.Horses,
		records: d.Records,
		grants:  d.Grants,
		audit:   d.Audit,
		log:     log.With(map[string]any{"component": "shareview"}),
		timeout: timeout,
		now:     time.Now,
	}
}

// WithClock permite fijar el reloj en tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	if now != nil {
		r.now = now
	}
	return r
}

// ResolveShare resuelve un token público. Cualquier causa de denegación
// devuelve apperr.ErrNotFoundOrRevoked; fallos del store salen como
// apperr.ErrUnavailable (reintentable).
//
// Orden: validez del share -> dueño del caballo -> pack -> fetch -> audit.
// requested (opcional) sólo puede recortar el scope.
func (r *Resolver) ResolveShare(ctx context.Context, token string, requested *scope.Descriptor) (ShareView, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	view, err := r.resolveShare(ctx, token, requested)
	switch {
	case err == nil:
		metrics.ShareResolutions.WithLabelValues("ok").Inc()
	case errors.Is(err, apperr.ErrNotFoundOrRevoked):
		metrics.ShareResolutions.WithLabelValues("denied").Inc()
	default:
		metrics.ShareResolutions.WithLabelValues("error").Inc()
		r.log.Warn("share resolution failed", map[string]any{"err": err})
	}
	return view, err
}

func (r *Resolver) resolveShare(ctx context.Context, token string, requested *scope.Descriptor) (ShareView, error) {
	sh, err := r.shares.FindByToken(ctx, token)
	if err != nil {
		return ShareView{}, r.denyOrFail(err, "token")
	}
	if !shares.IsEffective(sh, r.now()) {
		return ShareView{}, r.deny(sh.ID, "not effective")
	}

	h, err := r.horses.BelongsTo(ctx, sh.HorseID, sh.TenantID)
	if err != nil {
		return ShareView{}, r.denyOrFail(err, "subject")
	}

	base, err := r.shares.BaseScope(ctx, sh)
	if err != nil {
		// pack borrado: se falla cerrado, nunca se cae a "todo"
		return ShareView{}, r.denyOrFail(err, "pack")
	}

	effective := base
	if requested != nil {
		effective = base.Intersect(*requested)
	}

	data, err := r.fetch(ctx, h, effective)
	if err != nil {
		return ShareView{}, err
	}

	snapshot := effective
	if err := r.audit.Record(ctx, audit.Entry{
		ShareID: sh.ID,
		Actor:   auth.Anonymous,
		Kind:    audit.KindAccessed,
		Scope:   &snapshot,
	}); err != nil {
		return ShareView{}, apperr.Store(err)
	}

	return ShareView{
		Scope:     effective,
		ExpiresAt: sh.ExpiresAt,
		Data:      data,
	}, nil
}

// ResolveGrant es la vista de un partner autenticado bajo un consent grant.
// Acá los errores son precisos: el caller ya sabe qué intenta leer.
func (r *Resolver) ResolveGrant(ctx context.Context, actor auth.Actor, grantID, horseID string) (GrantView, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	view, err := r.resolveGrant(ctx, actor, grantID, horseID)
	switch {
	case err == nil:
		metrics.GrantResolutions.WithLabelValues("ok").Inc()
	case apperr.Status(err) >= http.StatusInternalServerError:
		metrics.GrantResolutions.WithLabelValues("error").Inc()
		r.log.Warn("grant resolution failed", map[string]any{"grant_id": grantID, "err": err})
	default:
		metrics.GrantResolutions.WithLabelValues("denied").Inc()
	}
	return view, err
}

func (r *Resolver) resolveGrant(ctx context.Context, actor auth.Actor, grantID, horseID string) (GrantView, error) {
	res, err := r.grants.Effective(ctx, grantID)
	if err != nil {
		return GrantView{}, apperr.Store(err)
	}
	g := res.Grant

	if !actor.MemberOf(g.GranteeTenantID) {
		if actor.MemberOf(g.GrantorTenantID) {
			return GrantView{}, apperr.Wrap(apperr.ErrUnauthorized, "grant %s is issued by your tenant", g.ID)
		}
		return GrantView{}, apperr.Wrap(apperr.ErrNotFound, "grant %s", grantID)
	}
	if !res.Effective {
		return GrantView{}, apperr.Wrap(apperr.ErrInvalidState, "grant %s is not effective", g.ID)
	}

	h, err := r.horses.BelongsTo(ctx, horseID, g.GrantorTenantID)
	if err != nil {
		return GrantView{}, apperr.Store(err)
	}

	sc := g.Scope()
	data, err := r.fetch(ctx, h, sc)
	if err != nil {
		return GrantView{}, err
	}

	snapshot := sc
	if err := r.audit.Record(ctx, audit.Entry{
		ConnectionID: g.ConnectionID,
		GrantID:      g.ID,
		Actor:        actor.ID,
		Kind:         audit.KindAccessed,
		Scope:        &snapshot,
		Detail:       "horse " + h.ID,
	}); err != nil {
		return GrantView{}, apperr.Store(err)
	}

	return GrantView{
		GrantID:      g.ID,
		ConnectionID: g.ConnectionID,
		ForwardOnly:  g.ForwardOnly,
		Scope:        sc,
		Data:         data,
	}, nil
}

// fetch pide sólo las categorías habilitadas, en paralelo. Las demás no se
// consultan y quedan en nil.
func (r *Resolver) fetch(ctx context.Context, h horses.Horse, sc scope.Descriptor) (Projection, error) {
	p := Projection{Horse: h.Identity()}
	cats := sc.Categories()
	results := make([][]RecordView, len(cats))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range cats {
		i, c := i, c
		g.Go(func() error {
			items, err := r.records.ListCategory(gctx, h.ID, c, sc.From, sc.To)
			if err != nil {
				return err
			}
			out := make([]RecordView, 0, len(items))
			for _, rec := range items {
				// defensa extra por si el store devuelve de más
				if rec.Category != c || !sc.Contains(rec.OccurredAt) {
					continue
				}
				out = append(out, toRecordView(rec))
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Projection{}, apperr.Store(err)
	}

	for i, c := range cats {
		p.set(c, results[i])
	}
	return p, nil
}

func (r *Resolver) deny(shareID, reason string) error {
	r.log.Debug("share denied", map[string]any{"share_id": shareID, "reason": reason})
	return apperr.ErrNotFoundOrRevoked
}

// denyOrFail: NotFound se colapsa al error genérico; el resto es un fallo
// del store y se informa como reintentable.
func (r *Resolver) denyOrFail(err error, stage string) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return r.deny("", stage+" not found")
	}
	err = apperr.Store(err)
	if errors.Is(err, apperr.ErrUnavailable) {
		return err
	}
	return errors.Join(apperr.ErrUnavailable, err)
}
