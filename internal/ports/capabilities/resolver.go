package capabilities

import (
	"context"

	"stable-sharing/internal/apperr"
	"stable-sharing/internal/ports/auth"
)

// ManageSharing es la capability que habilita crear/revocar shares, packs,
// conexiones y grants en nombre de un tenant.
const ManageSharing = "sharing:manage"

// Resolver decide si un actor puede administrar sharing en un tenant.
// El core confía en la respuesta sin verificar credenciales por su cuenta.
type Resolver interface {
	CanManageSharing(ctx context.Context, actorID, tenantID string) (bool, error)
}

// RequireManager exige pertenencia al tenant + capability. Devuelve
// apperr.ErrUnauthorized con detalle, o el error del resolver.
func RequireManager(ctx context.Context, r Resolver, actor auth.Actor, tenantID string) error {
	if actor.ID == "" {
		return apperr.Wrap(apperr.ErrUnauthorized, "missing actor")
	}
	if !actor.MemberOf(tenantID) {
		return apperr.Wrap(apperr.ErrUnauthorized, "actor is not a member of tenant %s", tenantID)
	}
	if r == nil {
		return apperr.Wrap(apperr.ErrUnauthorized, "capability resolver not configured")
	}
	ok, err := r.CanManageSharing(ctx, actor.ID, tenantID)
	if err != nil {
		return apperr.Store(err)
	}
	if !ok {
		return apperr.Wrap(apperr.ErrUnauthorized, "actor lacks %s on tenant %s", ManageSharing, tenantID)
	}
	return nil
}
